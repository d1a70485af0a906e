package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"autolabel/config"
	app "autolabel/internal/application"
	"autolabel/internal/container"
	"autolabel/internal/infrastructure/dataset"
	"autolabel/internal/infrastructure/vision"
)

const usage = `usage: autolabel [flags] <modelPath> <labelsFile> <imageDir>

Runs the detector over every image under imageDir and appends new,
non-duplicate detections to the per-image annotation records.

flags:
`

type options struct {
	modelPath  string
	labelsFile string
	imageDir   string
	outputDir  string
	conf       float64
	iou        float64
	saveImages bool
	backend    string
	workers    int
	logLevel   string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 2
	}

	opts, err := parseArgs(args, cfg, stderr)
	if err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintln(stderr, err)
		}
		return 2
	}

	logger, err := config.NewLogger(opts.logLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	log := logger.WithField("run_id", uuid.NewString())

	for _, path := range []string{opts.modelPath, opts.labelsFile, opts.imageDir} {
		if _, err := os.Stat(path); err != nil {
			log.WithError(err).WithField("path", path).Error("Required input path is missing")
			return 1
		}
	}

	labels, err := dataset.LoadLabels(opts.labelsFile)
	if err != nil {
		log.WithError(err).Error("Failed to load labels")
		return 1
	}
	log.WithField("classes", len(labels)).Info("Loaded label vocabulary")

	cfg.Backend = opts.backend
	cfg.Workers = opts.workers
	if cfg.Backend == config.BackendONNX {
		if err := vision.InitONNXRuntime(cfg.ONNXRuntimeLib); err != nil {
			log.WithError(err).Error("Failed to initialize detector")
			return 1
		}
		defer vision.DestroyONNXRuntime()
	}

	detector, err := container.NewDetector(cfg, opts.modelPath, len(labels))
	if err != nil {
		log.WithError(err).WithField("backend", cfg.Backend).Error("Failed to initialize detector")
		return 1
	}
	defer func() {
		if err := detector.Close(); err != nil {
			log.WithError(err).Warn("Failed to close detector")
		}
	}()

	// Собираем сервисы приложения
	appContainer := container.New(detector, container.NewRecordRepository(), vision.NewBoxHighlighter(), labels,
		app.ProcessorOptions{
			ImageDir:            opts.imageDir,
			OutputDir:           opts.outputDir,
			ConfidenceThreshold: opts.conf,
			IOUThreshold:        opts.iou,
			SaveAnnotatedImages: opts.saveImages,
			Workers:             opts.workers,
		}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"backend": cfg.Backend,
		"images":  opts.imageDir,
		"workers": opts.workers,
	}).Info("Starting processing")

	if _, err := appContainer.Processor.Run(ctx); err != nil {
		log.WithError(err).Error("Processing interrupted")
	}
	return 0
}

func parseArgs(args []string, cfg *config.Config, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("autolabel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.outputDir, "output-dir", "", "directory for annotation records (default: imageDir)")
	fs.Float64Var(&opts.conf, "conf", cfg.Confidence, "confidence threshold")
	fs.Float64Var(&opts.iou, "iou", cfg.IOU, "IOU threshold for duplicate detection")
	fs.BoolVar(&opts.saveImages, "save-images", false, "save images with drawn detections")
	fs.StringVar(&opts.backend, "backend", cfg.Backend, "detector backend: onnx, gocv or remote")
	fs.IntVar(&opts.workers, "workers", cfg.Workers, "number of parallel workers")
	fs.StringVar(&opts.logLevel, "log-level", cfg.LogLevel, "log level")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return nil, err
	}
	if len(positional) != 3 {
		fs.Usage()
		return nil, fmt.Errorf("expected 3 arguments, got %d", len(positional))
	}
	opts.modelPath, opts.labelsFile, opts.imageDir = positional[0], positional[1], positional[2]

	if opts.workers < 1 {
		return nil, fmt.Errorf("-workers must be at least 1")
	}
	return opts, nil
}

// parseInterspersed разрешает флаги как до, так и после позиционных аргументов.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}
