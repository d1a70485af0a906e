package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"autolabel/internal/domain/entity"
	"autolabel/internal/domain/port"
)

const (
	DefaultConfidenceThreshold = 0.25

	// AnnotatedDirName подкаталог выходного каталога для картинок с рамками.
	AnnotatedDirName = "annotated"

	ReasonNoDetections  = "no detections"
	ReasonAllDuplicates = "all duplicates"
)

// ImageExtensions расширения изображений, которые обходит процессор (без учёта регистра).
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// ProcessorOptions настройки прогона по каталогу.
type ProcessorOptions struct {
	ImageDir            string
	OutputDir           string // пусто: разметка кладётся рядом с изображениями
	ConfidenceThreshold float64
	IOUThreshold        float64
	SaveAnnotatedImages bool
	Workers             int
}

// OutcomeStatus итоговое состояние обработки одного изображения.
type OutcomeStatus int

const (
	OutcomeDone OutcomeStatus = iota
	OutcomeSkipped
	OutcomeFailed
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeDone:
		return "done"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("OutcomeStatus(%d)", int(s))
	}
}

// Outcome результат обработки одного изображения.
type Outcome struct {
	ImagePath  string
	RecordPath string
	Status     OutcomeStatus
	Reason     string
	Err        error
	Added      int
	Duplicates int
	Invalid    int
}

// Stats счётчики одного прогона.
type Stats struct {
	Found             int
	Processed         int
	Skipped           int
	Failed            int
	ShapesAdded       int
	DuplicatesDropped int
}

func (s *Stats) add(o Outcome) {
	switch o.Status {
	case OutcomeDone:
		s.Processed++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
	s.ShapesAdded += o.Added
	s.DuplicatesDropped += o.Duplicates
}

// Processor прогоняет модель по каталогу изображений и дописывает новые фигуры в разметку.
type Processor struct {
	detector    port.ObjectDetector
	records     port.RecordRepository
	highlighter port.Highlighter
	labels      []string
	opts        ProcessorOptions
	log         logrus.FieldLogger
}

// NewProcessor создаёт процессор, незаданные пороги заменяются значениями по умолчанию.
func NewProcessor(detector port.ObjectDetector, records port.RecordRepository, highlighter port.Highlighter,
	labels []string, opts ProcessorOptions, logger logrus.FieldLogger) *Processor {
	if opts.OutputDir == "" {
		opts.OutputDir = opts.ImageDir
	}
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if opts.IOUThreshold <= 0 {
		opts.IOUThreshold = DefaultIOUThreshold
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Processor{
		detector:    detector,
		records:     records,
		highlighter: highlighter,
		labels:      labels,
		opts:        opts,
		log:         logger,
	}
}

// Options возвращает действующие настройки.
func (p *Processor) Options() ProcessorOptions {
	return p.opts
}

// Run обрабатывает все изображения каталога. Ошибки отдельных изображений учитываются в Stats
// и не прерывают прогон; ошибка возвращается только если каталог не читается или ctx отменён.
func (p *Processor) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	var skip string
	if p.opts.SaveAnnotatedImages {
		dir, err := filepath.Abs(filepath.Join(p.opts.OutputDir, AnnotatedDirName))
		if err != nil {
			return stats, fmt.Errorf("resolve annotated dir: %w", err)
		}
		skip = dir
	}

	images, err := EnumerateImages(p.opts.ImageDir, skip, p.log)
	if err != nil {
		return stats, err
	}
	stats.Found = len(images)
	p.log.WithField("count", len(images)).Info("Found images to process")

	groups, err := p.groupByRecord(images)
	if err != nil {
		return stats, err
	}

	if p.opts.Workers == 1 || len(groups) <= 1 {
		err = p.runSequential(ctx, groups, &stats)
	} else {
		err = p.runParallel(ctx, groups, &stats)
	}

	p.log.WithFields(logrus.Fields{
		"processed":  stats.Processed,
		"skipped":    stats.Skipped,
		"failed":     stats.Failed,
		"added":      stats.ShapesAdded,
		"duplicates": stats.DuplicatesDropped,
	}).Info("Processing completed")

	return stats, err
}

// recordGroup изображения, которые пишут в один и тот же файл разметки (a.jpg и a.png).
type recordGroup struct {
	recordPath string
	images     []string
}

func (p *Processor) groupByRecord(images []string) ([]recordGroup, error) {
	groups := make([]recordGroup, 0, len(images))
	positions := make(map[string]int, len(images))

	for _, img := range images {
		recordPath, err := p.RecordPath(img)
		if err != nil {
			return nil, err
		}
		if i, ok := positions[recordPath]; ok {
			groups[i].images = append(groups[i].images, img)
			continue
		}
		positions[recordPath] = len(groups)
		groups = append(groups, recordGroup{recordPath: recordPath, images: []string{img}})
	}

	return groups, nil
}

func (p *Processor) runSequential(ctx context.Context, groups []recordGroup, stats *Stats) error {
	for _, g := range groups {
		for _, img := range g.images {
			if err := ctx.Err(); err != nil {
				return err
			}
			stats.add(p.ProcessImage(ctx, img))
		}
	}
	return nil
}

// runParallel раздаёт группы воркерам; одну группу целиком обрабатывает один воркер,
// поэтому один файл разметки никогда не пишется параллельно.
func (p *Processor) runParallel(ctx context.Context, groups []recordGroup, stats *Stats) error {
	jobs := make(chan recordGroup)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < p.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range jobs {
				for _, img := range g.images {
					if ctx.Err() != nil {
						break
					}
					outcome := p.ProcessImage(ctx, img)
					mu.Lock()
					stats.add(outcome)
					mu.Unlock()
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, g := range groups {
			select {
			case jobs <- g:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	return ctx.Err()
}

// ProcessImage выполняет полный цикл для одного изображения:
// загрузка или создание разметки, инференс, дедупликация, сохранение.
func (p *Processor) ProcessImage(ctx context.Context, imagePath string) Outcome {
	outcome := Outcome{ImagePath: imagePath}
	log := p.log.WithField("image", imagePath)

	recordPath, err := p.RecordPath(imagePath)
	if err != nil {
		return p.fail(log, outcome, err)
	}
	outcome.RecordPath = recordPath
	log = log.WithField("record", recordPath)

	record, err := p.loadOrCreate(log, imagePath, recordPath)
	if err != nil {
		return p.fail(log, outcome, err)
	}

	raw, err := p.detector.Detect(ctx, imagePath, p.opts.ConfidenceThreshold)
	if err != nil {
		if !errors.Is(err, entity.ErrModelInference) {
			err = fmt.Errorf("%w: %w", entity.ErrModelInference, err)
		}
		return p.fail(log, outcome, err)
	}

	shapes := p.toShapes(log, raw)
	p.highlight(log, imagePath, shapes)

	if len(shapes) == 0 {
		log.Info("No detections found")
		outcome.Status = OutcomeSkipped
		outcome.Reason = ReasonNoDetections
		return outcome
	}

	verdicts := Classify(shapes, record.Shapes, p.opts.IOUThreshold)
	for _, v := range verdicts {
		switch v.Kind {
		case VerdictDuplicate:
			outcome.Duplicates++
			log.WithFields(logrus.Fields{
				"label":     v.Shape.Label,
				"iou":       fmt.Sprintf("%.3f", v.IOU),
				"threshold": p.opts.IOUThreshold,
				"match":     v.Match,
			}).Debug("Duplicate detection, skipping")
		case VerdictInvalid:
			outcome.Invalid++
			log.WithError(v.Err).WithField("label", v.Shape.Label).Warn("Invalid detection shape, skipping")
		}
	}

	novel := NovelShapes(verdicts)
	if len(novel) == 0 {
		log.WithField("duplicates", outcome.Duplicates).Info("No new detections to add after filtering")
		outcome.Status = OutcomeSkipped
		outcome.Reason = ReasonAllDuplicates
		return outcome
	}

	record.Append(novel...)
	if err := p.records.Save(recordPath, record); err != nil {
		return p.fail(log, outcome, fmt.Errorf("save record: %w", err))
	}

	outcome.Status = OutcomeDone
	outcome.Added = len(novel)
	log.WithFields(logrus.Fields{
		"added":      outcome.Added,
		"duplicates": outcome.Duplicates,
	}).Info("Annotation record updated")

	return outcome
}

func (p *Processor) loadOrCreate(log logrus.FieldLogger, imagePath, recordPath string) (*entity.AnnotationRecord, error) {
	exists, err := p.records.Exists(recordPath)
	if err != nil {
		return nil, err
	}

	if exists {
		record, err := p.records.Load(recordPath)
		if err != nil {
			return nil, err
		}
		log.WithField("existing", len(record.Shapes)).Debug("Appending to existing annotation record")
		return record, nil
	}

	record, err := p.records.CreateForImage(imagePath)
	if err != nil {
		return nil, err
	}
	log.Debug("Creating new annotation record")
	return record, nil
}

func (p *Processor) toShapes(log logrus.FieldLogger, raw []entity.RawDetection) []entity.DetectionShape {
	shapes := make([]entity.DetectionShape, 0, len(raw))
	for _, det := range raw {
		if det.ClassIndex < 0 || det.ClassIndex >= len(p.labels) {
			log.WithField("class_id", det.ClassIndex).Warn("Class id out of range, using 'unknown'")
		}
		shapes = append(shapes, entity.NewDetectionShape(entity.LabelFor(p.labels, det.ClassIndex), det.Confidence, det.Box))
	}
	return shapes
}

func (p *Processor) highlight(log logrus.FieldLogger, imagePath string, shapes []entity.DetectionShape) {
	if !p.opts.SaveAnnotatedImages || p.highlighter == nil {
		return
	}

	outPath, err := p.AnnotatedPath(imagePath)
	if err == nil {
		err = p.highlighter.Highlight(imagePath, shapes, outPath)
	}
	if err != nil {
		log.WithError(err).Warn("Failed to save annotated image")
	}
}

func (p *Processor) fail(log logrus.FieldLogger, outcome Outcome, err error) Outcome {
	outcome.Status = OutcomeFailed
	outcome.Err = err
	log.WithError(err).Error("Error processing image")
	return outcome
}

// RecordPath путь файла разметки: то же относительное положение под выходным каталогом, расширение .json.
func (p *Processor) RecordPath(imagePath string) (string, error) {
	rel, err := filepath.Rel(p.opts.ImageDir, imagePath)
	if err != nil {
		return "", fmt.Errorf("relative image path: %w", err)
	}
	stem := strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(p.opts.OutputDir, stem+".json"), nil
}

// AnnotatedPath путь картинки с рамками: <output>/annotated/<rel-dir>/<stem>_result.jpg.
func (p *Processor) AnnotatedPath(imagePath string) (string, error) {
	rel, err := filepath.Rel(p.opts.ImageDir, imagePath)
	if err != nil {
		return "", fmt.Errorf("relative image path: %w", err)
	}
	stem := strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(p.opts.OutputDir, AnnotatedDirName, stem+"_result.jpg"), nil
}

// EnumerateImages рекурсивно собирает изображения под root в лексикографическом порядке.
// Каталог skipDir (абсолютный путь) не обходится.
func EnumerateImages(root, skipDir string, log logrus.FieldLogger) ([]string, error) {
	var images []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.WithError(err).WithField("path", path).Warn("Cannot read path, skipping")
			return nil
		}

		if d.IsDir() {
			if skipDir != "" && path != root {
				if abs, absErr := filepath.Abs(path); absErr == nil && abs == skipDir {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if ImageExtensions[strings.ToLower(filepath.Ext(path))] {
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk image dir: %w", err)
	}

	return images, nil
}
