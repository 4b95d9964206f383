package orderlake

import (
	"fmt"
	"time"

	"github.com/zpiroux/orderlake/entity"
	"github.com/zpiroux/orderlake/internal/pkg/engine"
	"github.com/zpiroux/orderlake/internal/pkg/entity/xparquet"
)

const defaultNotifyChanSize = 256

// Config needs to be created with NewConfig() and filled in with the collaborators and
// options applicable for the intended setup, and provided in the call to orderlake.New().
// Storage and Catalog are required, all other fields are optional.
type Config struct {

	// Storage is used both for reading uploaded orders files and writing output artifacts,
	// e.g. an xs3 based store.
	Storage entity.ObjectStore

	// Catalog is notified by starting a crawler after each written output artifact.
	Catalog entity.Crawler

	// Encoder serializes flat rows. If nil, a Parquet encoder is created using
	// Output.Compression.
	Encoder entity.Encoder

	Output  OutputConfig
	Crawler CrawlerConfig
	Ops     OpsConfig
	Hooks   HookConfig

	// Now is the clock used for output key timestamps. Defaults to time.Now.
	Now func() time.Time

	initialized bool
}

// OutputConfig specifies where and how output artifacts are written. Keys are on the form
// "<Prefix>/<FilePrefix><YYYYMMDD_HHMMSS>.<extension>", with the timestamp in UTC.
type OutputConfig struct {

	// Bucket overrides the destination bucket. If empty, the bucket of the input object is used.
	Bucket string

	Prefix     string
	FilePrefix string

	// Parquet compression codec: "snappy" (default), "gzip", "zstd" or "none".
	Compression string
}

type CrawlerConfig struct {
	Name string
}

// OpsConfig provide options for observability.
type OpsConfig struct {

	// Size of the notification channel buffer
	NotifyChanSize int

	// If set to true native logging will be used (debug, info, warn, and error logs).
	// If set to false (default) no standard logging will be done, but the same type of
	// information will be provided on the notification channel, accessible with
	// Pipeline.NotifyChannel().
	Log bool

	// Minimum notification level: "DEBUG", "INFO", "WARN" or "ERROR". If empty the
	// level is taken from the LOG_LEVEL env variable, defaulting to "INFO".
	LogLevel string

	// Number of flat rows to log at DEBUG level after each transform
	PreviewRows int
}

// HookConfig enables a client to inject custom logic prior to the transform, such as
// enrichment and filtering of uploaded files.
type HookConfig struct {
	PreTransformHookFunc entity.PreTransformHookFunc
}

// NewConfig returns an initialized Config struct with default values, required for orderlake.New().
func NewConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Prefix:      engine.DefaultOutputPrefix,
			FilePrefix:  engine.DefaultFilePrefix,
			Compression: xparquet.CompressionSnappy,
		},
		Crawler: CrawlerConfig{Name: engine.DefaultCrawlerName},
		Ops: OpsConfig{
			NotifyChanSize: defaultNotifyChanSize,
			PreviewRows:    engine.DefaultPreviewRows,
		},
		Now: func() time.Time {
			return time.Now().UTC()
		},
		initialized: true,
	}
}

func preProcessConfig(config *Config, notifyChan entity.NotifyChan) (c engine.Config, err error) {

	c.OutputBucket = config.Output.Bucket
	c.OutputPrefix = config.Output.Prefix
	c.FilePrefix = config.Output.FilePrefix
	c.CrawlerName = config.Crawler.Name
	c.Now = config.Now
	c.PreviewRows = config.Ops.PreviewRows
	c.PreTransformHookFunc = config.Hooks.PreTransformHookFunc
	c.NotifyChan = notifyChan
	c.Log = config.Ops.Log

	if config.Ops.LogLevel != "" {
		c.LogLevel = entity.NotifyLevel(config.Ops.LogLevel)
		if c.LogLevel == entity.NotifyLevelInvalid {
			return c, fmt.Errorf("%w: invalid log level %q", ErrInvalidConfig, config.Ops.LogLevel)
		}
	}
	return c, nil
}
