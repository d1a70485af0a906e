package storage

import (
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"autolabel/internal/domain/entity"
)

const labelmeRecord = `{
  "version": "2.4.4",
  "flags": {"reviewed": true},
  "shapes": [
    {
      "label": "cat",
      "score": null,
      "points": [[1, 2], [30, 2], [30, 40], [1, 40]],
      "group_id": 3,
      "description": "by hand",
      "difficult": true,
      "shape_type": "rectangle",
      "flags": {},
      "attributes": {"color": "black"},
      "kie_linking": []
    }
  ],
  "imagePath": "a.jpg",
  "imageData": null,
  "imageHeight": 48,
  "imageWidth": 64
}`

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}

func TestJSONRecordRepository_LoadPreservesAuxiliaryFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	require.NoError(t, os.WriteFile(path, []byte(labelmeRecord), 0o644))

	repo := NewJSONRecordRepository(NewConfigProber())
	record, err := repo.Load(path)
	require.NoError(t, err)
	require.Len(t, record.Shapes, 1)

	shape := record.Shapes[0]
	require.Nil(t, shape.Score)
	require.Equal(t, "by hand", shape.Description)
	require.True(t, shape.Difficult)
	require.JSONEq(t, "3", string(shape.GroupID))

	record.Append(entity.NewDetectionShape("dog", 0.5, entity.BoundingBox{X1: 5, Y1: 5, X2: 10, Y2: 10}))
	require.NoError(t, repo.Save(path, record))

	var raw map[string]any
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))

	require.Equal(t, map[string]any{"reviewed": true}, raw["flags"])
	require.Nil(t, raw["imageData"])
	shapes := raw["shapes"].([]any)
	require.Len(t, shapes, 2)

	first := shapes[0].(map[string]any)
	require.Equal(t, float64(3), first["group_id"])
	require.Equal(t, map[string]any{"color": "black"}, first["attributes"])
	require.Contains(t, first, "score")
	require.Nil(t, first["score"])

	second := shapes[1].(map[string]any)
	require.Equal(t, "dog", second["label"])
	require.Equal(t, 0.5, second["score"])
	require.Nil(t, second["group_id"])
	require.Equal(t, "rectangle", second["shape_type"])
}

func TestJSONRecordRepository_SaveLayout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "a.json")

	repo := NewJSONRecordRepository(NewConfigProber())
	require.NoError(t, repo.Save(path, entity.NewAnnotationRecord("a&b.jpg", 64, 48)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	require.True(t, strings.HasPrefix(text, "{\n  \"version\": \"2.4.4\""))
	require.Contains(t, text, `"imagePath": "a&b.jpg"`)
	require.Contains(t, text, `"shapes": []`)
	require.Contains(t, text, `"imageData": null`)
}

func TestJSONRecordRepository_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	repo := NewJSONRecordRepository(NewConfigProber())

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(path, entity.NewAnnotationRecord("a.jpg", 1, 1)))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a.json", entries[0].Name())
}

func TestJSONRecordRepository_CorruptRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"shapes": [`), 0o644))

	_, err := NewJSONRecordRepository(NewConfigProber()).Load(path)
	require.ErrorIs(t, err, entity.ErrCorruptRecord)
}

func TestJSONRecordRepository_SchemaViolationsAreCorrupt(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"null", `null`},
		{"array", `[]`},
		{"no version", `{"shapes": [], "imagePath": "a.jpg", "imageWidth": 4, "imageHeight": 3}`},
		{"no shapes", `{"version": "2.4.4", "imagePath": "a.jpg", "imageWidth": 4, "imageHeight": 3}`},
		{"null shapes", `{"version": "2.4.4", "shapes": null, "imagePath": "a.jpg", "imageWidth": 4, "imageHeight": 3}`},
		{"no imagePath", `{"version": "2.4.4", "shapes": [], "imageWidth": 4, "imageHeight": 3}`},
		{"zero size", `{"version": "2.4.4", "shapes": [], "imagePath": "a.jpg", "imageWidth": 0, "imageHeight": 3}`},
		{"shape without points", `{"version": "2.4.4", "shapes": [{"label": "x"}], "imagePath": "a.jpg", "imageWidth": 4, "imageHeight": 3}`},
		{"shape without label", `{"version": "2.4.4", "shapes": [{"points": [[0,0],[1,0],[1,1],[0,1]]}], "imagePath": "a.jpg", "imageWidth": 4, "imageHeight": 3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "a.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))

			_, err := NewJSONRecordRepository(NewConfigProber()).Load(path)
			require.ErrorIs(t, err, entity.ErrCorruptRecord)
		})
	}
}

func TestJSONRecordRepository_UnknownKeysSurviveRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.json")
	body := `{
  "version": "2.4.4",
  "flags": {},
  "shapes": [
    {
      "label": "cat",
      "score": null,
      "points": [[1, 2], [30, 2], [30, 40], [1, 40]],
      "group_id": null,
      "description": "",
      "difficult": false,
      "shape_type": "rectangle",
      "flags": {},
      "attributes": {},
      "kie_linking": [],
      "mask": "iVBORw0KGgo=",
      "direction": 0.5
    }
  ],
  "imagePath": "a.jpg",
  "imageData": null,
  "imageHeight": 48,
  "imageWidth": 64,
  "description": "reviewed by ops",
  "checked": true
}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	repo := NewJSONRecordRepository(NewConfigProber())
	record, err := repo.Load(path)
	require.NoError(t, err)
	record.Append(entity.NewDetectionShape("dog", 0.5, entity.BoundingBox{X1: 5, Y1: 5, X2: 10, Y2: 10}))
	require.NoError(t, repo.Save(path, record))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	require.Equal(t, "reviewed by ops", raw["description"])
	require.Equal(t, true, raw["checked"])

	shapes := raw["shapes"].([]any)
	require.Len(t, shapes, 2)
	first := shapes[0].(map[string]any)
	require.Equal(t, "iVBORw0KGgo=", first["mask"])
	require.Equal(t, 0.5, first["direction"])
	require.Contains(t, first, "score")
	require.Nil(t, first["score"])

	second := shapes[1].(map[string]any)
	require.NotContains(t, second, "mask")
	require.Equal(t, 0.5, second["score"])

	reloaded, err := repo.Load(path)
	require.NoError(t, err)
	require.Equal(t, record.Extra, reloaded.Extra)
	require.Equal(t, record.Shapes[0].Extra, reloaded.Shapes[0].Extra)
}

func TestJSONRecordRepository_Exists(t *testing.T) {
	dir := t.TempDir()
	repo := NewJSONRecordRepository(NewConfigProber())

	ok, err := repo.Exists(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repo.Exists(dir)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Save(filepath.Join(dir, "a.json"), entity.NewAnnotationRecord("a.jpg", 1, 1)))
	ok, err = repo.Exists(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestJSONRecordRepository_CreateForImage(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "photo.png")
	writePNG(t, img, 64, 48)

	repo := NewJSONRecordRepository(NewConfigProber())
	record, err := repo.CreateForImage(img)
	require.NoError(t, err)
	require.Equal(t, "photo.png", record.ImagePath)
	require.Equal(t, 64, record.ImageWidth)
	require.Equal(t, 48, record.ImageHeight)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.jpg"), []byte("not an image"), 0o644))
	_, err = repo.CreateForImage(filepath.Join(dir, "bad.jpg"))
	require.ErrorIs(t, err, entity.ErrUnreadableImage)
}
