// Command generate validates the merchant record files, writes the facet
// metadata next to them and optionally publishes the snapshot to a database.
//
// It exits non-zero when any record fails validation; nothing is written in
// that case.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"merchantdir/internal/config"
	"merchantdir/internal/logger"
	"merchantdir/internal/models"
	"merchantdir/internal/pipeline"
	"merchantdir/internal/storage"
	"merchantdir/internal/version"
)

type options struct {
	configFile   string
	merchants    string
	categories   string
	capabilities string
	output       string
	publish      string
	dsn          string
	concurrency  int
}

func main() {
	var opts options
	flag.StringVar(&opts.configFile, "config", "", "Path to configuration file")
	flag.StringVar(&opts.merchants, "merchants", "", "Directory of merchant record files (default: data.merchants_dir)")
	flag.StringVar(&opts.categories, "categories", "", "Allowed categories file (default: data.categories_file)")
	flag.StringVar(&opts.capabilities, "capabilities", "", "Capability display names file (default: data.capabilities_file)")
	flag.StringVar(&opts.output, "output", "", "Metadata output file (default: data.metadata_file)")
	flag.StringVar(&opts.publish, "publish", "", "Also publish the snapshot to sqlite or postgres")
	flag.StringVar(&opts.dsn, "dsn", "", "Database DSN for -publish (default: data.dsn)")
	flag.IntVar(&opts.concurrency, "concurrency", 0, "Files validated in parallel (default: GOMAXPROCS)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	ver := version.GetInfo()
	if *showVersion {
		fmt.Println(ver.String())
		return
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	opts.applyDefaults(cfg.Data)

	log, err := logger.SetupWriter(os.Stderr, cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, log); err != nil {
		var verr *pipeline.ValidationError
		if !errors.As(err, &verr) {
			slog.Error("Generation failed", "error", err)
		}
		os.Exit(1)
	}
}

func (o *options) applyDefaults(data models.DataConfig) {
	if o.merchants == "" {
		o.merchants = data.MerchantsDir
	}
	if o.categories == "" {
		o.categories = data.CategoriesFile
	}
	if o.capabilities == "" {
		o.capabilities = data.CapabilitiesFile
	}
	if o.output == "" {
		o.output = data.MetadataFile
	}
	if o.dsn == "" {
		o.dsn = data.DSN
	}
}

func run(ctx context.Context, opts options, log *slog.Logger) error {
	rules, err := pipeline.LoadRules(opts.categories, opts.capabilities)
	if err != nil {
		return err
	}

	records, err := pipeline.LoadRecords(opts.merchants)
	if err != nil {
		return err
	}
	log.Info("Validating merchant records", "dir", opts.merchants, "files", len(records))

	result, err := pipeline.New(rules,
		pipeline.WithLogger(log),
		pipeline.WithConcurrency(opts.concurrency),
	).Run(ctx, records)

	var verr *pipeline.ValidationError
	switch {
	case errors.As(err, &verr):
		verr.Report.Print(os.Stdout, opts.merchants)
		return err
	case err != nil:
		return err
	}
	result.Report.Print(os.Stdout, opts.merchants)

	if err := pipeline.WriteMetadata(opts.output, result.Dataset.Metadata); err != nil {
		return err
	}
	log.Info("Metadata written", "path", opts.output)

	if opts.publish == "" {
		return nil
	}
	return publish(ctx, opts.publish, opts.dsn, &result.Dataset, log)
}

func publish(ctx context.Context, kind, dsn string, ds *models.Dataset, log *slog.Logger) error {
	if dsn == "" {
		return fmt.Errorf("a DSN is required to publish to %s", kind)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	pub, err := storage.NewPublisher(ctx, kind, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s publisher: %w", kind, err)
	}
	defer pub.Close()

	if err := pub.Publish(ctx, ds); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	log.Info("Snapshot published", "target", kind, "merchants", len(ds.Merchants))
	return nil
}
