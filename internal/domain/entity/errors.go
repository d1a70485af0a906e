package entity

import "errors"

// Ошибки уровня одного изображения или одной фигуры, ни одна не прерывает весь прогон.
var (
	ErrUnreadableImage = errors.New("unreadable image")
	ErrCorruptRecord   = errors.New("corrupt annotation record")
	ErrInvalidShape    = errors.New("invalid shape")
	ErrModelInference  = errors.New("model inference failed")
)
