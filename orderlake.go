package orderlake

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/tidwall/sjson"
	"github.com/zpiroux/orderlake/entity"
	"github.com/zpiroux/orderlake/internal/pkg/engine"
	"github.com/zpiroux/orderlake/internal/pkg/entity/xparquet"
)

// Error values returned by the orderlake API.
// Many of these errors will also contain additional details about the error.
// Error matching can still be done with 'if errors.Is(err, ErrStorage)' etc.
// due to error wrapping.
var (
	ErrConfigNotInitialized = errors.New("orderlake.Config need to be created with NewConfig()")
	ErrInvalidConfig        = errors.New("invalid config")
	ErrMissingStorage       = errors.New("config is missing an object storage implementation")
	ErrMissingCatalog       = errors.New("config is missing a crawler implementation")

	// Stage errors, found wrapped in Result.Error
	ErrInput     = entity.ErrInput
	ErrTransform = entity.ErrTransform
	ErrSerialize = entity.ErrSerialize
	ErrStorage   = entity.ErrStorage
	ErrNotify    = entity.ErrNotify
)

// Pipeline converts uploaded nested orders files into flat columnar output artifacts and
// notifies the catalog crawler about them. A Pipeline is safe for concurrent use and is
// intended to be created once per process, e.g. in the init phase of a Lambda function.
type Pipeline struct {
	executor   *engine.Executor
	notifyChan entity.NotifyChan
	rejected   int64
}

// New creates a Pipeline based on the provided config, which needs to be initially
// created with NewConfig().
func New(config *Config) (*Pipeline, error) {

	if config == nil || !config.initialized {
		return nil, ErrConfigNotInitialized
	}
	if config.Storage == nil {
		return nil, ErrMissingStorage
	}
	if config.Catalog == nil {
		return nil, ErrMissingCatalog
	}
	if config.Ops.NotifyChanSize < 0 {
		return nil, fmt.Errorf("%w: negative notify channel size", ErrInvalidConfig)
	}

	encoder := config.Encoder
	if encoder == nil {
		pe, err := xparquet.NewEncoder(config.Output.Compression)
		if err != nil {
			return nil, errWithDetails(ErrInvalidConfig, err)
		}
		encoder = pe
	}

	p := &Pipeline{notifyChan: make(entity.NotifyChan, config.Ops.NotifyChanSize)}
	engineConfig, err := preProcessConfig(config, p.notifyChan)
	if err != nil {
		return nil, err
	}

	p.executor, err = engine.NewExecutor(engineConfig, config.Storage, config.Catalog, encoder)
	if err != nil {
		return nil, errWithDetails(ErrInvalidConfig, err)
	}
	return p, nil
}

// Handle processes the object referenced by the first record of an S3 trigger event and
// returns the invocation response: status 200 if processing completed or was skipped by a
// hook, and status 500 otherwise, with details in the body message.
// It has the signature of a Lambda handler and is used as such in cmd/orderlake.
// The returned error is always nil, since failures are reported in the response.
func (p *Pipeline) Handle(ctx context.Context, event events.S3Event) (response entity.Response, err error) {

	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&p.rejected, 1)
			response = entity.ResponseFromResult(entity.Result{Error: fmt.Errorf("%w: panic (%v) in event handling", ErrInput, r)})
		}
	}()

	instance := InvocationId(ctx)
	loc, lerr := entity.LocationFromEvent(event)
	if lerr != nil {
		atomic.AddInt64(&p.rejected, 1)
		n := p.executor.Notifier(instance, "")
		n.Notify(entity.NotifyLevelError, "Rejecting trigger event, err: %v", lerr)
		return entity.ResponseFromResult(entity.Result{Stage: entity.StageFetch, Error: lerr}), nil
	}

	result := p.executor.Process(ctx, instance, loc)
	return entity.ResponseFromResult(result), nil
}

// Process runs the pipeline for a single input object. It is the programmatic alternative
// to Handle, returning the detailed result.
func (p *Pipeline) Process(ctx context.Context, loc entity.Location) entity.Result {
	return p.executor.Process(ctx, InvocationId(ctx), loc)
}

// Metrics returns cumulative processing metrics for this Pipeline instance.
func (p *Pipeline) Metrics() entity.Metrics {
	m := p.executor.Metrics()
	rejected := atomic.LoadInt64(&p.rejected)
	m.Invocations += rejected
	m.Failures += rejected
	return m
}

// NotifyChannel returns the channel where operational notification events are sent.
// Events are dropped if the channel buffer is full.
func (p *Pipeline) NotifyChannel() entity.NotifyChan {
	return p.notifyChan
}

// InvocationId returns the Lambda request ID if available in the context, or a new
// random ID otherwise.
func InvocationId(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}

// EnrichEvent is a convenience function that could be used for document enrichment purposes
// inside a hook function as specified in orderlake.Config.Hooks, e.g. with path "0.customer_id".
// It's a wrapper on the sjson package. See doc at https://github.com/tidwall/sjson.
func EnrichEvent(event []byte, path string, value any) ([]byte, error) {
	return sjson.SetBytes(event, path, value)
}

func errWithDetails(err error, errDetails error) error {
	return fmt.Errorf("%w, details: %v", err, errDetails)
}
