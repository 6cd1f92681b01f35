package common

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByKey(t *testing.T) {
	err := New(KeyInvalidQuality, nil, "other text")

	assert.ErrorIs(t, err, ErrInvalidQuality)
	assert.NotErrorIs(t, err, ErrInvalidFileInput)

	wrapped := fmt.Errorf("convert: %w", ErrInvalidFileInput)
	assert.ErrorIs(t, wrapped, ErrInvalidFileInput)
}

func TestError_MessageFallsBackToKey(t *testing.T) {
	assert.Equal(t, "Invalid images array", ErrInvalidImagesArray.Error())
	assert.Equal(t, "errors.custom", New("errors.custom", nil, "").Error())
}

func TestNew_NilParamsBecomeEmptyMap(t *testing.T) {
	e := New("k", nil, "f")
	require.NotNil(t, e.Params)
	assert.Empty(t, e.Params)
}

func TestConversionFailed_WrapsCause(t *testing.T) {
	err := ConversionFailed(io.ErrUnexpectedEOF)

	assert.Equal(t, "Conversion failed: unexpected EOF", err.Error())
	assert.Equal(t, "unexpected EOF", err.Params["message"])
	assert.ErrorIs(t, err, ErrConversionFailed)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	var tagged *Error
	require.True(t, errors.As(err, &tagged))
	assert.Equal(t, KeyConversionFailedGeneric, tagged.Key)
}

func TestConversionFailed_NilCause(t *testing.T) {
	err := ConversionFailed(nil)
	assert.Equal(t, "Conversion failed: unknown error", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

func TestCreateWarnings(t *testing.T) {
	all := EnvironmentChecks{BlobSupport: true, HandleSupport: true, LinkDownloadSupport: true, SecureContext: true}
	assert.True(t, all.All())
	assert.Empty(t, CreateWarnings(all))

	none := EnvironmentChecks{}
	assert.False(t, none.All())
	ws := CreateWarnings(none)
	require.Len(t, ws, 4)
	assert.Equal(t, []string{
		KeyWarnBlobNotSupported,
		KeyWarnURLNotSupported,
		KeyWarnDownloadNotSupported,
		KeyWarnInsecureContext,
	}, []string{ws[0].Key, ws[1].Key, ws[2].Key, ws[3].Key})

	partial := all
	partial.SecureContext = false
	ws = CreateWarnings(partial)
	require.Len(t, ws, 1)
	assert.Equal(t, KeyWarnInsecureContext, ws[0].Key)
}

func TestWrap_KeepsKeyAndCause(t *testing.T) {
	err := Wrap(ErrImageLoadFailed, io.EOF)

	assert.ErrorIs(t, err, ErrImageLoadFailed)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, ErrImageLoadFailed.Error(), err.Error())
	assert.Nil(t, errors.Unwrap(ErrImageLoadFailed), "sentinel must stay untouched")
}
