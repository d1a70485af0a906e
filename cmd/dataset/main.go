package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"autolabel/config"
	app "autolabel/internal/application"
	"autolabel/internal/container"
	"autolabel/internal/infrastructure/dataset"
)

const usage = `usage: dataset <command> [flags] <args>

commands:
  labels <recordsDir> <outputDir> [-prune-empty]   collect labels.txt sorted by frequency
  merge-labels <recordsDir> <datasetDir>           extend labels.txt into fixed_labels.txt
  yaml <datasetDir>                                write dataset.yaml from fixed_labels.txt
  split <datasetDir> [-test-ratio 0.2] [-seed N]   copy pairs into <dir>-train and <dir>-test
  fix-paths <recordsDir>                           set imagePath to <stem>.jpg
  download <urlFile> <outputDir> <prefix>          fetch images by URL
`

type command func(c *container.Container, args []string, log logrus.FieldLogger) error

var commands = map[string]command{
	"labels":       runLabels,
	"merge-labels": runMergeLabels,
	"yaml":         runYAML,
	"split":        runSplit,
	"fix-paths":    runFixPaths,
	"download":     runDownload,
}

// usageError неверные аргументы подкоманды.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 2
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	logger.SetOutput(stderr)
	log := logger.WithFields(logrus.Fields{"run_id": uuid.NewString(), "command": args[0]})

	appContainer := container.New(nil, container.NewRecordRepository(), nil, nil, app.ProcessorOptions{}, log)

	if err := cmd(appContainer, args[1:], log); err != nil {
		if _, ok := err.(usageError); ok {
			fmt.Fprintf(stderr, "%v\n\n%s", err, usage)
			return 2
		}
		log.WithError(err).Error("Command failed")
		return 1
	}
	return 0
}

// parse разбирает флаги подкоманды и проверяет число позиционных аргументов.
func parse(fs *flag.FlagSet, args []string, want int) ([]string, error) {
	fs.SetOutput(io.Discard)
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, usageError{msg: fmt.Sprintf("%s: %v", fs.Name(), err)}
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
	if len(positional) != want {
		return nil, usageError{msg: fmt.Sprintf("%s: expected %d arguments, got %d", fs.Name(), want, len(positional))}
	}
	return positional, nil
}

func runLabels(c *container.Container, args []string, log logrus.FieldLogger) error {
	fs := flag.NewFlagSet("labels", flag.ContinueOnError)
	pruneEmpty := fs.Bool("prune-empty", false, "delete records without shapes")
	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}

	vocab, err := c.Dataset.CollectVocabulary(pos[0], app.NewVocabulary(), *pruneEmpty)
	if err != nil {
		return err
	}

	labels := vocab.ByFrequency()
	out := filepath.Join(pos[1], dataset.LabelsFileName)
	if err := dataset.WriteLabels(out, labels); err != nil {
		return err
	}

	for _, label := range labels {
		log.WithFields(logrus.Fields{"label": label, "count": vocab.Count(label)}).Debug("Label frequency")
	}
	log.WithFields(logrus.Fields{
		"labels":      len(labels),
		"records":     vocab.Files,
		"empty":       vocab.EmptyFiles,
		"output_file": out,
	}).Info("Labels collected")
	return nil
}

func runMergeLabels(c *container.Container, args []string, log logrus.FieldLogger) error {
	pos, err := parse(flag.NewFlagSet("merge-labels", flag.ContinueOnError), args, 2)
	if err != nil {
		return err
	}

	known, err := dataset.LoadLabelsIfExists(filepath.Join(pos[1], dataset.LabelsFileName))
	if err != nil {
		return err
	}

	found, err := c.Dataset.CollectVocabulary(pos[0], app.NewVocabulary(), false)
	if err != nil {
		return err
	}

	merged := app.MergeLabels(known, found)
	out := filepath.Join(pos[1], dataset.FixedLabelsFileName)
	if err := dataset.WriteLabels(out, merged); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"known":       len(known),
		"added":       len(merged) - len(known),
		"output_file": out,
	}).Info("Labels merged")
	return nil
}

func runYAML(_ *container.Container, args []string, log logrus.FieldLogger) error {
	pos, err := parse(flag.NewFlagSet("yaml", flag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}

	labels, err := dataset.LoadLabels(filepath.Join(pos[0], dataset.FixedLabelsFileName))
	if err != nil {
		return err
	}

	out := filepath.Join(pos[0], dataset.ManifestFileName)
	if err := dataset.WriteManifest(out, dataset.NewManifest(labels)); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{"nc": len(labels), "output_file": out}).Info("Dataset manifest written")
	return nil
}

func runSplit(_ *container.Container, args []string, log logrus.FieldLogger) error {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	ratio := fs.Float64("test-ratio", dataset.DefaultTestRatio, "share of pairs copied to the test split")
	seed := fs.Int64("seed", time.Now().UnixNano(), "random seed")
	pos, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	if *ratio < 0 || *ratio > 1 {
		return usageError{msg: "split: -test-ratio must be within [0, 1]"}
	}

	result, err := dataset.Split(pos[0], *ratio, rand.New(rand.NewSource(*seed)))
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"train":   result.Train,
		"test":    result.Test,
		"skipped": result.Skipped,
		"seed":    *seed,
	}).Info("Dataset split")
	return nil
}

func runFixPaths(c *container.Container, args []string, log logrus.FieldLogger) error {
	pos, err := parse(flag.NewFlagSet("fix-paths", flag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}

	fixed, err := c.Dataset.FixImagePaths(pos[0])
	if err != nil {
		return err
	}

	log.WithField("fixed", fixed).Info("Image paths fixed")
	return nil
}

func runDownload(_ *container.Container, args []string, log logrus.FieldLogger) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	timeout := fs.Duration("timeout", 30*time.Second, "per-request timeout")
	pos, err := parse(fs, args, 3)
	if err != nil {
		return err
	}

	urls, err := dataset.ReadURLs(pos[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := dataset.NewDownloader(*timeout, log).Download(ctx, urls, pos[1], pos[2])
	log.WithFields(logrus.Fields{
		"downloaded": stats.Downloaded,
		"failed":     stats.Failed,
	}).Info("Download finished")
	return err
}
