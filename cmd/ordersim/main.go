// Command ordersim generates synthetic orders documents, written to a local file or
// uploaded to an S3 bucket where they trigger the orderlake function.
//
//	ordersim --orders 1000 --items-max 8 --output orders.json
//	ordersim --bucket my-input-bucket --key raw/orders.json
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/teltech/logger"
	"github.com/zpiroux/orderlake/internal/pkg/appconfig"
	"github.com/zpiroux/orderlake/internal/pkg/entity/ordersim"
	"github.com/zpiroux/orderlake/internal/pkg/entity/xs3"
)

var log *logger.Log

type options struct {
	specFile   string
	orders     int
	itemsMin   int
	itemsMax   int
	omitItems  float64
	seed       int64
	outputFile string
	bucket     string
	key        string
}

func main() {
	log = logger.New()

	var opts options
	pflag.StringVarP(&opts.specFile, "spec", "s", "", "JSON file with a generator spec, replacing the default spec")
	pflag.IntVarP(&opts.orders, "orders", "n", 10, "number of orders to generate")
	pflag.IntVar(&opts.itemsMin, "items-min", 0, "minimum number of items per order")
	pflag.IntVar(&opts.itemsMax, "items-max", 4, "maximum number of items per order")
	pflag.Float64Var(&opts.omitItems, "omit-items-ratio", 0, "probability (0-1) of an order having no items key")
	pflag.Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "random seed, for reproducible documents")
	pflag.StringVarP(&opts.outputFile, "output", "o", "-", "output file, or - for stdout")
	pflag.StringVar(&opts.bucket, "bucket", "", "upload the document to this S3 bucket instead of writing it locally")
	pflag.StringVar(&opts.key, "key", "", "object key of the uploaded document (default raw/orders_<timestamp>.json)")
	pflag.Parse()

	if err := run(context.Background(), opts); err != nil {
		log.Errorf("ordersim failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {

	spec, err := loadSpec(opts)
	if err != nil {
		return err
	}

	g, err := ordersim.NewGenerator(spec, opts.seed, nil)
	if err != nil {
		return fmt.Errorf("invalid generator spec: %w", err)
	}

	doc, stats, err := g.Generate()
	if err != nil {
		return err
	}

	if opts.bucket != "" {
		return upload(ctx, opts, doc, stats)
	}

	if opts.outputFile == "-" {
		_, err = os.Stdout.Write(append(doc, '\n'))
		return err
	}
	if err = os.WriteFile(opts.outputFile, doc, 0o644); err != nil {
		return err
	}
	log.Infof("generated %d orders with %d items to %s", stats.Orders, stats.Items, opts.outputFile)
	return nil
}

func loadSpec(opts options) (ordersim.Spec, error) {

	if opts.specFile != "" {
		var spec ordersim.Spec
		data, err := os.ReadFile(opts.specFile)
		if err != nil {
			return spec, err
		}
		if err = json.Unmarshal(data, &spec); err != nil {
			return spec, fmt.Errorf("could not parse spec file %s: %w", opts.specFile, err)
		}
		return spec, nil
	}

	spec := ordersim.DefaultSpec()
	spec.Orders = ordersim.Count{Min: opts.orders, Max: opts.orders}
	spec.Items = ordersim.Count{Min: opts.itemsMin, Max: opts.itemsMax}
	spec.OmitItemsRatio = opts.omitItems
	return spec, nil
}

// upload uses the same AWS configuration as the orderlake function.
func upload(ctx context.Context, opts options, doc []byte, stats ordersim.Stats) error {

	cfg, err := appconfig.Load()
	if err != nil {
		return err
	}
	awsCfg, err := cfg.LoadAWSConfig(ctx)
	if err != nil {
		return err
	}

	store, err := xs3.NewStore(
		xs3.NewClient(awsCfg, cfg.AWS.Endpoint, cfg.AWS.UsePathStyle),
		xs3.WithContentType("application/json"))
	if err != nil {
		return err
	}

	key := opts.key
	if key == "" {
		key = "raw/orders_" + time.Now().UTC().Format("20060102_150405") + ".json"
	}
	if err = store.Put(ctx, opts.bucket, key, doc); err != nil {
		return err
	}
	log.Infof("uploaded %d orders with %d items to s3://%s/%s", stats.Orders, stats.Items, opts.bucket, key)
	return nil
}
