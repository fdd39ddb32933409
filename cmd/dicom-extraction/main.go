package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"ikh/dicom-extraction/internal/api"
	"ikh/dicom-extraction/internal/config"
	"ikh/dicom-extraction/internal/extract"
	"ikh/dicom-extraction/internal/logging"
	"ikh/dicom-extraction/internal/orchestrator"
	"ikh/dicom-extraction/internal/report"
	"ikh/dicom-extraction/internal/tags"
	"ikh/dicom-extraction/internal/validator"
)

const (
	exitOK = iota
	exitUsage
	exitStructure
	exitFatal
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dicom-extraction", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "yaml configuration file")
	dataDir := fs.String("data_dir", "data", "data directory laid out as patient_<k>/study_<k>/<files>")
	outDir := fs.String("out", "", "output directory (default: deidentified_data next to the data directory)")
	tagsFile := fs.String("tags", "", "allow-list CSV (default: built-in list)")
	logLevel := fs.String("log_level", "error", "log level: debug, info, warn, error")
	logFormat := fs.String("log_format", "console", "log format: console or json")
	imageFormat := fs.String("image_format", config.FormatPNG, "image format: png or tiff")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: dicom-extraction [options] [data_dir]")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.ReadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading config: %v\n", err)
			return exitUsage
		}
	}

	// Flags given on the command line win over the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data_dir":
			cfg.DataDir = *dataDir
		case "out":
			cfg.OutputDir = *outDir
		case "tags":
			cfg.TagsFile = *tagsFile
		case "log_level":
			cfg.LogLevel = *logLevel
		case "log_format":
			cfg.LogFormat = *logFormat
		case "image_format":
			cfg.ImageFormat = *imageFormat
		}
	})
	switch fs.NArg() {
	case 0:
	case 1:
		cfg.DataDir = fs.Arg(0)
	default:
		fs.Usage()
		return exitUsage
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return exitUsage
	}

	log, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(stderr, "Error creating logger: %v\n", err)
		return exitUsage
	}
	defer log.Sync()

	log.Info("loading tag allow-list", zap.String("file", cfg.TagsFile))
	allow, err := loadAllowList(cfg.TagsFile)
	if err != nil {
		log.Error("cannot load tag allow-list", zap.Error(err))
		fmt.Fprintf(stderr, "Error loading tag allow-list: %v\n", err)
		return exitUsage
	}

	o := orchestrator.New(cfg,
		validator.New(cfg, log),
		extract.New(extract.NewDecoder(), allow),
		allow.Columns(),
		log)

	log.Info("starting extraction", zap.String("data_dir", cfg.DataDir), zap.String("output_dir", cfg.OutputRoot()))
	summary, runErr := o.Run()
	if summary != nil {
		if err := report.Print(stdout, summary); err != nil {
			log.Warn("cannot print summary", zap.Error(err))
		}
	}
	if runErr != nil {
		log.Error("extraction failed", zap.Error(runErr))
		fmt.Fprintf(stderr, "Error: %v\n", runErr)
		var se *validator.StructureError
		if errors.As(runErr, &se) {
			return exitStructure
		}
		return exitFatal
	}

	if cfg.NotifyURL != "" {
		err := api.NotifyRunComplete(cfg.NotifyURL, api.RunComplete{
			Records: summary.Records,
			Images:  summary.Images,
			Skipped: len(summary.Skipped),
			State:   summary.State.String(),
		})
		if err != nil {
			log.Warn("run notification failed", zap.String("url", cfg.NotifyURL), zap.Error(err))
		}
	}

	return exitOK
}

func loadAllowList(path string) (*tags.AllowList, error) {
	if path == "" {
		return tags.Default()
	}
	return tags.Load(path)
}
