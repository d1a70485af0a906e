package vision

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"autolabel/internal/domain/entity"
	"autolabel/internal/domain/port"
)

// BoxHighlighter рисует рамки и подписи фигур, цвет рамки зависит от метки.
type BoxHighlighter struct {
	Thickness int
	Quality   int
}

// NewBoxHighlighter создаёт рисовальщик с рамкой 2px и JPEG quality 90.
func NewBoxHighlighter() *BoxHighlighter {
	return &BoxHighlighter{Thickness: 2, Quality: 90}
}

// Highlight сохраняет копию изображения с рамками фигур.
func (h *BoxHighlighter) Highlight(imagePath string, shapes []entity.DetectionShape, outPath string) error {
	src, err := imaging.Open(imagePath)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrUnreadableImage, err)
	}

	canvas := imaging.Clone(src)
	for _, shape := range shapes {
		box, err := shape.Box()
		if err != nil {
			continue
		}
		c := LabelColor(shape.Label)
		rect := image.Rect(int(box.X1), int(box.Y1), int(box.X2), int(box.Y2))
		drawFrame(canvas, rect, c, h.Thickness)
		drawCaption(canvas, rect.Min, caption(shape), c)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create annotated dir: %w", err)
	}
	if err := imaging.Save(canvas, outPath, imaging.JPEGQuality(h.Quality)); err != nil {
		return fmt.Errorf("save annotated image: %w", err)
	}
	return nil
}

// LabelColor детерминированный насыщенный цвет для метки.
func LabelColor(label string) color.Color {
	hash := fnv.New32a()
	hash.Write([]byte(label))
	hue := float64(hash.Sum32() % 360)
	return colorful.Hcl(hue, 0.7, 0.6).Clamped()
}

func caption(shape entity.DetectionShape) string {
	if shape.Score == nil {
		return shape.Label
	}
	return fmt.Sprintf("%s %.2f", shape.Label, *shape.Score)
}

func drawFrame(dst draw.Image, rect image.Rectangle, c color.Color, thickness int) {
	uniform := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thickness),
		image.Rect(rect.Min.X, rect.Max.Y-thickness, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+thickness, rect.Max.Y),
		image.Rect(rect.Max.X-thickness, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), uniform, image.Point{}, draw.Src)
	}
}

func drawCaption(dst draw.Image, at image.Point, text string, bg color.Color) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Src: image.White, Face: face}

	width := drawer.MeasureString(text).Ceil()
	height := face.Metrics().Height.Ceil()

	top := at.Y - height
	if top < dst.Bounds().Min.Y {
		top = at.Y
	}
	box := image.Rect(at.X, top, at.X+width+4, top+height)
	draw.Draw(dst, box.Intersect(dst.Bounds()), image.NewUniform(bg), image.Point{}, draw.Src)

	drawer.Dot = fixed.P(at.X+2, top+face.Metrics().Ascent.Ceil())
	drawer.DrawString(text)
}

// Проверка реализации интерфейса
var _ port.Highlighter = (*BoxHighlighter)(nil)
