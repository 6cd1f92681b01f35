// Package common defines the tagged errors and environment warnings shared by
// the converter, the upload queue, the conversion manager and the download
// service. Every error carries a stable translation key (see package i18n),
// optional interpolation parameters and an English fallback message.
//
// Callers should match with errors.Is against the sentinel values below; two
// *Error values match when their keys are equal.
package common

import (
	"errors"
	"fmt"
)

// Error is a tagged error with a translation key.
type Error struct {
	Key      string
	Params   map[string]any
	Fallback string

	cause error
}

func (e *Error) Error() string {
	if e.Fallback != "" {
		return e.Fallback
	}
	return e.Key
}

// Is reports whether target is an *Error with the same key.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Key == e.Key
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a tagged error.
func New(key string, params map[string]any, fallback string) *Error {
	if params == nil {
		params = map[string]any{}
	}
	return &Error{Key: key, Params: params, Fallback: fallback}
}

// Translation keys.
const (
	KeyBrowserNotSupported     = "errors.browser_not_supported"
	KeyInvalidFileInput        = "errors.invalid_file_input"
	KeyUnsupportedFormat       = "errors.unsupported_format"
	KeyInvalidQuality          = "errors.invalid_quality"
	KeyConversionFailedBlob    = "errors.conversion_failed_blob"
	KeyConversionFailedGeneric = "errors.conversion_failed_generic"
	KeyImageLoadFailed         = "errors.image_load_failed"
	KeyInvalidParameters       = "errors.invalid_parameters"
	KeyInvalidAvifFile         = "errors.invalid_avif_file"
	KeyInvalidImagesArray      = "errors.invalid_images_array"
	KeyListenerNotFunction     = "errors.listener_not_function"
)

var (
	// converter errors
	ErrNotSupported         = New(KeyBrowserNotSupported, nil, "Runtime does not support image conversion")
	ErrInvalidFileInput     = New(KeyInvalidFileInput, nil, "Invalid file input")
	ErrUnsupportedFormat    = New(KeyUnsupportedFormat, nil, `Unsupported target format. Use "jpeg" or "png"`)
	ErrInvalidQuality       = New(KeyInvalidQuality, nil, "Quality must be between 0 and 1")
	ErrConversionFailedBlob = New(KeyConversionFailedBlob, nil, "Conversion failed: Unable to create blob")
	ErrImageLoadFailed      = New(KeyImageLoadFailed, nil, "Failed to load image for conversion")

	// conversion manager errors
	ErrInvalidParameters   = New(KeyInvalidParameters, nil, "Invalid parameters: imageId and file are required")
	ErrInvalidAvifFile     = New(KeyInvalidAvifFile, nil, "File is not a valid AVIF image")
	ErrInvalidImagesArray  = New(KeyInvalidImagesArray, nil, "Invalid images array")
	ErrListenerNotFunction = New(KeyListenerNotFunction, nil, "Listener must be a function")

	// ErrConversionFailed matches any error built by ConversionFailed.
	ErrConversionFailed = New(KeyConversionFailedGeneric, nil, "Conversion failed")
)

// Wrap returns a copy of sentinel that carries cause. The copy still matches
// sentinel with errors.Is.
func Wrap(sentinel *Error, cause error) *Error {
	e := *sentinel
	e.cause = cause
	return &e
}

// ConversionFailed wraps an unexpected encode-time failure.
func ConversionFailed(cause error) *Error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	e := New(KeyConversionFailedGeneric, map[string]any{"message": msg}, fmt.Sprintf("Conversion failed: %s", msg))
	e.cause = cause
	return e
}
