package engine

import (
	"time"

	"github.com/zpiroux/orderlake/entity"
)

type Config struct {
	// Destination of output artifacts. An empty OutputBucket means the bucket of the input object.
	OutputBucket string
	OutputPrefix string
	FilePrefix   string

	CrawlerName string

	// Clock used for output key timestamps, always formatted in UTC
	Now func() time.Time

	// Number of flat rows logged at DEBUG level after each transform. Negative disables it.
	PreviewRows int

	PreTransformHookFunc entity.PreTransformHookFunc

	NotifyChan entity.NotifyChan
	Log        bool
	LogLevel   int
}
