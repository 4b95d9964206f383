// Command orderlake is the AWS Lambda function flattening uploaded orders files into
// Parquet and notifying the Glue crawler. Configuration is read with appconfig.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/teltech/logger"
	"github.com/zpiroux/orderlake"
	"github.com/zpiroux/orderlake/entity"
	"github.com/zpiroux/orderlake/internal/pkg/appconfig"
	"github.com/zpiroux/orderlake/internal/pkg/entity/xglue"
	"github.com/zpiroux/orderlake/internal/pkg/entity/xparquet"
	"github.com/zpiroux/orderlake/internal/pkg/entity/xs3"
)

const parquetContentType = "application/vnd.apache.parquet"

var log *logger.Log

func main() {
	log = logger.New()

	pipeline, err := newPipeline(context.Background())
	if err != nil {
		log.Errorf("could not create pipeline, err: %v", err)
		os.Exit(1)
	}
	log.Infof("pipeline created, starting Lambda handler")

	lambda.Start(pipeline.Handle)
}

// newPipeline creates the pipeline with its AWS clients once per execution environment,
// so they are reused across invocations.
func newPipeline(ctx context.Context) (*orderlake.Pipeline, error) {

	cfg, err := appconfig.Load()
	if err != nil {
		return nil, err
	}

	awsCfg, err := cfg.LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	store, err := xs3.NewStore(
		xs3.NewClient(awsCfg, cfg.AWS.Endpoint, cfg.AWS.UsePathStyle),
		xs3.WithContentType(parquetContentType))
	if err != nil {
		return nil, err
	}

	crawler, err := xglue.NewCrawler(xglue.NewClient(awsCfg, cfg.AWS.Endpoint))
	if err != nil {
		return nil, err
	}

	encoder, err := xparquet.NewEncoder(cfg.Output.Compression)
	if err != nil {
		return nil, err
	}

	config := orderlake.NewConfig()
	config.Storage = store
	config.Catalog = crawler
	config.Encoder = encoder
	config.Output.Bucket = cfg.Output.Bucket
	config.Output.Prefix = cfg.Output.Prefix
	config.Output.FilePrefix = cfg.Output.FilePrefix
	config.Output.Compression = cfg.Output.Compression
	config.Crawler.Name = cfg.Crawler.Name
	config.Ops.Log = cfg.Log.Enabled
	config.Ops.LogLevel = cfg.Log.Level
	config.Ops.NotifyChanSize = cfg.Notify.ChanSize

	pipeline, err := orderlake.New(config)
	if err != nil {
		return nil, err
	}
	go drainNotifications(pipeline.NotifyChannel(), cfg.Log.Enabled)
	return pipeline, nil
}

// drainNotifications keeps the notify channel from filling up. When native logging is
// disabled, warnings and errors are still logged from here.
func drainNotifications(ch entity.NotifyChan, logEnabled bool) {
	for event := range ch {
		if logEnabled {
			continue
		}
		switch event.Level {
		case entity.NotifyLevelStrWarn:
			log.Warnf("[%s:%s] %s", event.Sender, event.Instance, event.Message)
		case entity.NotifyLevelStrError:
			log.Errorf("[%s:%s] %s", event.Sender, event.Instance, event.Message)
		}
	}
}
