package download

import "errors"

var (
	ErrInvalidBlob       = errors.New("invalid blob object")
	ErrInvalidFilename   = errors.New("invalid filename")
	ErrNothingToDownload = errors.New("no successful conversions to download")
)
