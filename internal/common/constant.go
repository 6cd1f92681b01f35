package common

// MIME types and extensions understood by the converter.
const (
	AvifMIMEType = "image/avif"
	AvifExt      = ".avif"

	JPEGMIMEType = "image/jpeg"
	PNGMIMEType  = "image/png"
	ZipMIMEType  = "application/zip"
)
