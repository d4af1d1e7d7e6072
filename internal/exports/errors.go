package exports

import "errors"

var (
	ErrEmptyImage = errors.New("image data is empty")
	ErrNoImages   = errors.New("no images could be added to the document")
)
