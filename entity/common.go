package entity

import (
	"errors"
)

// Stage errors. Every failure produced while processing an uploaded orders file wraps
// exactly one of these, so callers can match with 'errors.Is(err, entity.ErrStorage)'
// etc., while the wrapping error carries the details.
var (
	ErrInput     = errors.New("input error")
	ErrTransform = errors.New("transform error")
	ErrSerialize = errors.New("serialize error")
	ErrStorage   = errors.New("storage error")
	ErrNotify    = errors.New("notify error")
)

// Stage identifies the pipeline stage which produced a Result.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageTransform Stage = "transform"
	StageSerialize Stage = "serialize"
	StagePublish   Stage = "publish"
	StageNotify    Stage = "notify"
	StageDone      Stage = "done"
)

// Metrics provided by the pipeline of its operations. Accessible with Pipeline.Metrics().
// All counters are cumulative for the lifetime of the Pipeline instance, which in a Lambda
// deployment is the lifetime of the warm execution environment.
type Metrics struct {

	// Total number of handled trigger events, regardless of outcome.
	Invocations int64

	// Total number of invocations ending with a failure response.
	Failures int64

	// Total number of invocations skipped by a pre-transform hook.
	Skipped int64

	// Total number of order records decoded from input files.
	OrdersProcessed int64

	// Total number of flat rows written to output artifacts.
	RowsWritten int64

	// Total amount of input data read from storage.
	BytesRead int64

	// Total amount of encoded output data written to storage.
	BytesWritten int64

	// Total number of successful crawler start requests.
	CrawlerStarts int64

	// Total time spent in successful invocations.
	ProcessingTimeMicros int64

	// Total number of notification events dropped due to a full notify channel.
	NotificationsDropped int64
}
