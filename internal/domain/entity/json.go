package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

var recordKeys = []string{"version", "flags", "shapes", "imagePath", "imageData", "imageHeight", "imageWidth"}

var shapeKeys = []string{"label", "score", "points", "group_id", "description", "difficult",
	"shape_type", "flags", "attributes", "kie_linking"}

type recordFields AnnotationRecord

type shapeFields DetectionShape

// UnmarshalJSON разбирает известные поля и запоминает остальные в Extra.
func (r *AnnotationRecord) UnmarshalJSON(data []byte) error {
	var fields recordFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := unknownKeys(data, recordKeys, nil)
	if err != nil {
		return err
	}
	fields.Extra = extra
	*r = AnnotationRecord(fields)
	return nil
}

// MarshalJSON пишет известные поля в фиксированном порядке, затем Extra по алфавиту.
func (r AnnotationRecord) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(recordFields(r), r.Extra)
}

// UnmarshalJSON разбирает известные поля и запоминает остальные в Extra.
// Явный "score": null тоже попадает в Extra, чтобы пережить перезапись.
func (s *DetectionShape) UnmarshalJSON(data []byte) error {
	var fields shapeFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := unknownKeys(data, shapeKeys, func(key string, value json.RawMessage) bool {
		return key == "score" && bytes.Equal(bytes.TrimSpace(value), []byte("null"))
	})
	if err != nil {
		return err
	}
	fields.Extra = extra
	*s = DetectionShape(fields)
	return nil
}

// MarshalJSON пишет известные поля в фиксированном порядке, затем Extra по алфавиту.
func (s DetectionShape) MarshalJSON() ([]byte, error) {
	extra := s.Extra
	if s.Score != nil {
		if _, ok := extra["score"]; ok {
			extra = make(map[string]json.RawMessage, len(s.Extra))
			for k, v := range s.Extra {
				if k != "score" {
					extra[k] = v
				}
			}
		}
	}
	return marshalWithExtra(shapeFields(s), extra)
}

// unknownKeys возвращает ключи объекта вне known; keep разрешает сохранить и известный ключ.
func unknownKeys(data []byte, known []string, keep func(string, json.RawMessage) bool) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	for _, key := range known {
		if value, ok := raw[key]; ok && (keep == nil || !keep(key, value)) {
			delete(raw, key)
		}
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	out := bytes.TrimSpace(buf.Bytes())
	if len(extra) == 0 {
		return out, nil
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(out) < 2 || out[len(out)-1] != '}' {
		return nil, fmt.Errorf("unexpected encoding %q", out)
	}
	result := append([]byte(nil), out[:len(out)-1]...)
	for i, k := range keys {
		if i > 0 || len(out) > 2 {
			result = append(result, ',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, name...)
		result = append(result, ':')
		result = append(result, extra[k]...)
	}
	return append(result, '}'), nil
}
