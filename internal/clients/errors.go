package clients

import "errors"

var (
	ErrUnsupportedSite = errors.New("URL does not belong to the supported site")
	ErrNoSlides        = errors.New("no slide images found on page")
	ErrHTTPStatus      = errors.New("unexpected HTTP status")
)
