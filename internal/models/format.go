package models

import (
	"strings"

	"github.com/dmitrijs2005/avifconv/internal/common"
)

// Format is an output raster encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// Valid reports whether f is one of the supported output formats.
func (f Format) Valid() bool {
	return f == FormatJPEG || f == FormatPNG
}

// Extension is the canonical file extension without the dot.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// MIMEType of the encoded output.
func (f Format) MIMEType() string {
	switch f {
	case FormatJPEG:
		return common.JPEGMIMEType
	case FormatPNG:
		return common.PNGMIMEType
	default:
		return ""
	}
}

// Lossy reports whether the quality parameter applies.
func (f Format) Lossy() bool { return f == FormatJPEG }

// ParseFormat accepts "jpeg", "jpg" and "png" in any case.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return FormatJPEG, true
	case "png":
		return FormatPNG, true
	default:
		return "", false
	}
}
