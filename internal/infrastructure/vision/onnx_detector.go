package vision

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"

	"autolabel/internal/domain/entity"
	"autolabel/internal/domain/port"
)

// InitONNXRuntime загружает разделяемую библиотеку onnxruntime; пустой путь оставляет путь по умолчанию.
func InitONNXRuntime(libPath string) error {
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

// DestroyONNXRuntime освобождает окружение onnxruntime.
func DestroyONNXRuntime() {
	_ = ort.DestroyEnvironment()
}

type onnxSession struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func (s *onnxSession) destroy() {
	if s.session != nil {
		s.session.Destroy()
	}
	if s.input != nil {
		s.input.Destroy()
	}
	if s.output != nil {
		s.output.Destroy()
	}
}

// ONNXDetector запускает YOLO-модель, экспортированную в ONNX (вход images, выход output0).
type ONNXDetector struct {
	pool       *sessionPool[*onnxSession]
	numClasses int
}

// NewONNXDetector открывает poolSize сессий модели. Окружение должно быть инициализировано InitONNXRuntime.
func NewONNXDetector(modelPath string, numClasses, poolSize int) (*ONNXDetector, error) {
	if numClasses <= 0 {
		return nil, fmt.Errorf("model needs at least one class, got %d", numClasses)
	}

	threads := runtime.NumCPU() / max(poolSize, 1)
	pool, err := newSessionPool(poolSize, func() (*onnxSession, error) {
		return initSession(modelPath, numClasses, max(threads, 1))
	}, (*onnxSession).destroy)
	if err != nil {
		return nil, err
	}

	return &ONNXDetector{pool: pool, numClasses: numClasses}, nil
}

func initSession(modelPath string, numClasses, threads int) (*onnxSession, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()

	options.SetIntraOpNumThreads(threads)
	options.SetInterOpNumThreads(1)

	inputShape := ort.NewShape(1, 3, InputSize, InputSize)
	outputShape := ort.NewShape(1, int64(4+numClasses), 8400)

	input, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"images"},
		[]string{"output0"},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	return &onnxSession{session: session, input: input, output: output}, nil
}

// Detect возвращает объекты на изображении, отсортированные по убыванию уверенности.
func (d *ONNXDetector) Detect(ctx context.Context, imagePath string, confThreshold float64) ([]entity.RawDetection, error) {
	img, err := imaging.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrUnreadableImage, err)
	}
	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	session, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire session: %v", entity.ErrModelInference, err)
	}
	defer d.pool.Release(session)

	prepareInput(img, session.input.GetData())

	if err := session.session.Run(); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrModelInference, err)
	}

	output := session.output.GetData()
	layout, err := newYOLOLayout(len(output), d.numClasses)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrModelInference, err)
	}

	candidates := decodeYOLO(output, layout, confThreshold, width, height)
	return nonMaxSuppression(candidates, NMSThreshold, MaxDetections), nil
}

// prepareInput растягивает изображение до InputSize x InputSize и раскладывает каналы RGB в CHW, 0..1.
func prepareInput(img image.Image, dst []float32) {
	resized := imaging.Resize(img, InputSize, InputSize, imaging.Linear)
	channelSize := InputSize * InputSize

	for y := 0; y < InputSize; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < InputSize; x++ {
			i := y*InputSize + x
			dst[i] = float32(row[x*4]) / 255.0
			dst[channelSize+i] = float32(row[x*4+1]) / 255.0
			dst[channelSize*2+i] = float32(row[x*4+2]) / 255.0
		}
	}
}

// Close закрывает все сессии модели.
func (d *ONNXDetector) Close() error {
	d.pool.Destroy()
	return nil
}

// Проверка реализации интерфейса
var _ port.ObjectDetector = (*ONNXDetector)(nil)
