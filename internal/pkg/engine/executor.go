package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/teltech/logger"
	"github.com/tidwall/gjson"
	"github.com/zpiroux/orderlake/entity"
	"github.com/zpiroux/orderlake/entity/transform"
	"github.com/zpiroux/orderlake/pkg/notify"
)

const (
	DefaultOutputPrefix = "orders_parquet_datalake"
	DefaultFilePrefix   = "orders_"
	DefaultCrawlerName  = "pipeline_crawler"
	DefaultPreviewRows  = 5

	timestampLayout = "20060102_150405"
)

var (
	ErrHookUnretryableError = errors.New("PreTransformHookFunc reported unretryable error")
	ErrHookInvalidAction    = errors.New("PreTransformHookFunc returned invalid action value")
	ErrMissingCollaborator  = errors.New("executor requires an object store, a crawler and an encoder")
)

// Executor runs the pipeline for uploaded orders files, from fetching the input object,
// via transform and serialization, to publishing the output artifact and starting the
// catalog crawler. Each stage ends the run on its first error.
// An Executor holds no per-file state and can be used concurrently.
type Executor struct {
	config  Config
	store   entity.ObjectStore
	crawler entity.Crawler
	encoder entity.Encoder
	log     *logger.Log
	metrics entity.Metrics
}

func NewExecutor(config Config, store entity.ObjectStore, crawler entity.Crawler, encoder entity.Encoder) (*Executor, error) {

	if isNil(store) || isNil(crawler) || isNil(encoder) {
		return nil, ErrMissingCollaborator
	}

	e := &Executor{
		config:  config,
		store:   store,
		crawler: crawler,
		encoder: encoder,
	}
	if e.config.CrawlerName == "" {
		e.config.CrawlerName = DefaultCrawlerName
	}
	if e.config.Now == nil {
		e.config.Now = time.Now
	}
	if e.config.PreviewRows == 0 {
		e.config.PreviewRows = DefaultPreviewRows
	}
	if config.Log {
		e.log = logger.New()
	}
	return e, nil
}

func (e *Executor) Metrics() entity.Metrics {
	return entity.Metrics{
		Invocations:          atomic.LoadInt64(&e.metrics.Invocations),
		Failures:             atomic.LoadInt64(&e.metrics.Failures),
		Skipped:              atomic.LoadInt64(&e.metrics.Skipped),
		OrdersProcessed:      atomic.LoadInt64(&e.metrics.OrdersProcessed),
		RowsWritten:          atomic.LoadInt64(&e.metrics.RowsWritten),
		BytesRead:            atomic.LoadInt64(&e.metrics.BytesRead),
		BytesWritten:         atomic.LoadInt64(&e.metrics.BytesWritten),
		CrawlerStarts:        atomic.LoadInt64(&e.metrics.CrawlerStarts),
		ProcessingTimeMicros: atomic.LoadInt64(&e.metrics.ProcessingTimeMicros),
		NotificationsDropped: atomic.LoadInt64(&e.metrics.NotificationsDropped),
	}
}

// Notifier returns a notifier for the provided invocation instance, tagged with the object key.
// Events dropped by it are counted in Metrics.NotificationsDropped.
func (e *Executor) Notifier(instance, object string) *notify.Notifier {
	n := notify.New(e.config.NotifyChan, e.log, 2, "executor", instance, object)
	n.CountDropsIn(&e.metrics.NotificationsDropped)
	if e.config.LogLevel != entity.NotifyLevelInvalid {
		n.SetNotifyLevel(e.config.LogLevel)
	}
	return n
}

// Process runs all stages for the object at loc. Failures are returned in result.Error,
// wrapping the sentinel error of the failing stage, with result.Stage set to that stage.
// Panics in collaborators or hooks are recovered and reported as failures of the current stage.
func (e *Executor) Process(ctx context.Context, instance string, loc entity.Location) (result entity.Result) {

	var (
		data    []byte
		rows    []entity.Row
		encoded []byte
		err     error
	)

	n := e.Notifier(instance, loc.Key)
	result.Input = loc
	atomic.AddInt64(&e.metrics.Invocations, 1)
	defer e.processExit(time.Now().UnixMicro(), n, &result)

	n.Notify(entity.NotifyLevelInfo, "Processing file %s", loc)

	result.Stage = entity.StageFetch
	if data, err = e.fetch(ctx, loc); err != nil {
		result.Error = err
		return
	}

	result.Stage = entity.StageTransform
	if e.config.PreTransformHookFunc != nil {
		var proceed bool
		proceed, result.Error = e.applyHook(ctx, loc, &data)
		if !proceed {
			result.Skipped = result.Error == nil
			return
		}
	}

	var orders []entity.Order
	if orders, rows, err = transform.Transform(data); err != nil {
		result.Error = err
		return
	}
	result.Orders, result.Rows = len(orders), len(rows)
	atomic.AddInt64(&e.metrics.OrdersProcessed, int64(len(orders)))
	e.preview(n, orders, rows)

	result.Stage = entity.StageSerialize
	if encoded, err = e.serialize(rows); err != nil {
		result.Error = err
		return
	}

	result.Stage = entity.StagePublish
	if result.OutputKey, err = e.publish(ctx, loc, encoded); err != nil {
		result.Error = err
		return
	}
	atomic.AddInt64(&e.metrics.RowsWritten, int64(len(rows)))
	atomic.AddInt64(&e.metrics.BytesWritten, int64(len(encoded)))
	n.Notify(entity.NotifyLevelInfo, "Wrote %d rows (%d bytes) to %s", len(rows), len(encoded), result.OutputKey)

	result.Stage = entity.StageNotify
	if result.Error = e.startCrawler(ctx); result.Error != nil {
		return
	}

	result.Stage = entity.StageDone
	return
}

func (e *Executor) processExit(startTime int64, n *notify.Notifier, result *entity.Result) {

	// Protection against badly written connectors or external hook logic
	if r := recover(); r != nil {
		result.Error = fmt.Errorf("%w: panic (%v) in stage %s", stageError(result.Stage), r, result.Stage)
		result.Skipped = false
	}

	switch {
	case result.Error != nil:
		atomic.AddInt64(&e.metrics.Failures, 1)
		n.Notify(entity.NotifyLevelError, "Processing failed in stage %s, err: %v", result.Stage, result.Error)
	case result.Skipped:
		atomic.AddInt64(&e.metrics.Skipped, 1)
		n.Notify(entity.NotifyLevelInfo, "Processing skipped by hook")
	default:
		atomic.AddInt64(&e.metrics.ProcessingTimeMicros, time.Now().UnixMicro()-startTime)
		n.Notify(entity.NotifyLevelInfo, "Processing complete, result: %s", result)
	}
}

// fetch reads the input object, which needs to be a valid UTF-8 encoded JSON document.
func (e *Executor) fetch(ctx context.Context, loc entity.Location) ([]byte, error) {

	data, err := e.store.Get(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrInput, err)
	}
	atomic.AddInt64(&e.metrics.BytesRead, int64(len(data)))

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", entity.ErrInput, loc)
	}
	if err = transform.CheckNestingDepth(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", entity.ErrInput, loc, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s is not a valid JSON document", entity.ErrInput, loc)
	}
	return data, nil
}

// applyHook returns true if processing should continue. A skip request returns false without error.
func (e *Executor) applyHook(ctx context.Context, loc entity.Location, data *[]byte) (bool, error) {

	action := e.config.PreTransformHookFunc(ctx, loc, data)

	switch action {
	case entity.HookActionProceed:
		return true, nil
	case entity.HookActionSkip:
		return false, nil
	case entity.HookActionUnretryableError:
		return false, fmt.Errorf("%w: %w", entity.ErrTransform, ErrHookUnretryableError)
	default:
		return false, fmt.Errorf("%w: %w: %v", entity.ErrTransform, ErrHookInvalidAction, action)
	}
}

func (e *Executor) preview(n *notify.Notifier, orders []entity.Order, rows []entity.Row) {
	n.Notify(entity.NotifyLevelInfo, "Flattened %d orders into %d rows", len(orders), len(rows))
	for i, row := range rows {
		if i >= e.config.PreviewRows {
			break
		}
		n.Notify(entity.NotifyLevelDebug, "Row %d: %s", i, row)
	}
}

func (e *Executor) serialize(rows []entity.Row) ([]byte, error) {
	encoded, err := e.encoder.Encode(rows)
	if err != nil {
		if errors.Is(err, entity.ErrSerialize) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", entity.ErrSerialize, err)
	}
	return encoded, nil
}

// publish writes the encoded rows to a new timestamped key and returns the key.
// Two runs within the same second produce the same key, with the last write winning.
func (e *Executor) publish(ctx context.Context, loc entity.Location, encoded []byte) (string, error) {

	bucket := e.config.OutputBucket
	if bucket == "" {
		bucket = loc.Bucket
	}
	key := e.OutputKey(e.config.Now())

	if err := e.store.Put(ctx, bucket, key, encoded); err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrStorage, err)
	}
	return key, nil
}

// OutputKey returns the output artifact key for the provided time, e.g.
// "orders_parquet_datalake/orders_20240101_120000.parquet".
func (e *Executor) OutputKey(t time.Time) string {
	name := e.config.FilePrefix + t.UTC().Format(timestampLayout) + "." + e.encoder.Extension()
	prefix := strings.Trim(e.config.OutputPrefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func (e *Executor) startCrawler(ctx context.Context) error {
	if err := e.crawler.StartCrawler(ctx, e.config.CrawlerName); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrNotify, err)
	}
	atomic.AddInt64(&e.metrics.CrawlerStarts, 1)
	return nil
}
