package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zpiroux/orderlake"
	"github.com/zpiroux/orderlake/entity"
	"github.com/zpiroux/orderlake/internal/pkg/entity/ordersim"
	"github.com/zpiroux/orderlake/internal/pkg/entity/void"
	"github.com/zpiroux/orderlake/internal/pkg/etltest"
)

const (
	bucket       = "local-orders"
	runs         = 5
	runInterval  = 2 * time.Second
	generateSeed = 1
)

// A local orderlake run, without AWS. Synthetic orders documents are put in an in-memory
// object store, processed into Parquet, and the crawler start requests end up in the void
// crawler. Run with go run .
// Graceful shutdown with Ctrl+C (or similar)
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	go ensureGracefulShutdown(cancel)
	if err := run(ctx); err != nil {
		log.Fatalf("local run failed: %v", err)
	}
}

func ensureGracefulShutdown(cancel context.CancelFunc) {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown
	log.Println("Received shutdown (SIGINT/SIGTERM) signal - cancelling local run.")
	cancel()
}

func run(ctx context.Context) error {

	store := etltest.NewMockStore()
	crawler, err := void.NewCrawler(void.Config{LogRequests: true})
	if err != nil {
		return err
	}
	generator, err := ordersim.NewGenerator(ordersim.DefaultSpec(), generateSeed, nil)
	if err != nil {
		return err
	}

	config := orderlake.NewConfig()
	config.Storage = store
	config.Catalog = crawler
	config.Ops.LogLevel = "debug"
	pipeline, err := orderlake.New(config)
	if err != nil {
		return err
	}
	go logNotifications(pipeline.NotifyChannel())

	for i := 0; i < runs; i++ {
		doc, stats, err := generator.Generate()
		if err != nil {
			return err
		}
		loc := entity.Location{Bucket: bucket, Key: "raw/orders_" + time.Now().Format("150405.000") + ".json"}
		if err = store.Put(ctx, loc.Bucket, loc.Key, doc); err != nil {
			return err
		}

		result := pipeline.Process(ctx, loc)
		log.Printf("generated %d orders with %d items, result: %s", stats.Orders, stats.Items, result)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(runInterval):
		}
	}

	log.Printf("objects in %s: %v", bucket, store.Keys(bucket))
	log.Printf("crawler start requests: %v", crawler.Requests())
	log.Printf("metrics: %+v", pipeline.Metrics())
	return nil
}

func logNotifications(ch entity.NotifyChan) {
	for event := range ch {
		log.Printf("[%s] %s: %s", event.Level, event.Sender, event.Message)
	}
}
