package uploads

import "errors"

var (
	ErrNotFound          = errors.New("upload not found")
	ErrStaleAttempt      = errors.New("upload attempt superseded")
	ErrInvalidState      = errors.New("progress only accepted while uploading")
	ErrInvalidTransition = errors.New("invalid upload status transition")
)
