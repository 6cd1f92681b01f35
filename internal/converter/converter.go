// Package converter turns one AVIF file into one JPEG or PNG blob.
//
// The input is decoded under an ephemeral handle, drawn unscaled onto a
// same-sized RGBA surface and re-encoded. Quality applies to JPEG only.
package converter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"runtime"
	"strings"

	"github.com/dmitrijs2005/avifconv/internal/common"
	"github.com/dmitrijs2005/avifconv/internal/handles"
	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/gen2brain/avif"
	"golang.org/x/image/draw"
)

// DefaultQuality is used when callers do not pick one.
const DefaultQuality = 0.9

// PlaceholderName is the base name used when the input has no usable name.
const PlaceholderName = "converted"

// DecodeFunc decodes raw input bytes into a raster image.
type DecodeFunc func(r io.Reader) (image.Image, error)

// EncodeFunc writes img in one output format. quality is in [0,1].
type EncodeFunc func(w io.Writer, img image.Image, quality float64) error

type Converter struct {
	decode   DecodeFunc
	encoders map[models.Format]EncodeFunc
	handles  *handles.Registry
}

type Option func(*Converter)

// WithDecoder replaces the AVIF decoder.
func WithDecoder(d DecodeFunc) Option {
	return func(c *Converter) { c.decode = d }
}

// WithEncoder replaces the encoder for one format.
func WithEncoder(f models.Format, e EncodeFunc) Option {
	return func(c *Converter) { c.encoders[f] = e }
}

// WithHandles shares a handle registry with other components.
func WithHandles(r *handles.Registry) Option {
	return func(c *Converter) { c.handles = r }
}

func New(opts ...Option) *Converter {
	c := &Converter{
		decode: avif.Decode,
		encoders: map[models.Format]EncodeFunc{
			models.FormatJPEG: encodeJPEG,
			models.FormatPNG:  encodePNG,
		},
		handles: handles.NewRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsSupported reports whether a decoder and both encoders are available.
func (c *Converter) IsSupported() bool {
	if c == nil || c.decode == nil || c.handles == nil {
		return false
	}
	for _, f := range SupportedFormats() {
		if c.encoders[f] == nil {
			return false
		}
	}
	return true
}

// ConvertToFormat converts file to target. Failures are tagged errors from
// package common.
func (c *Converter) ConvertToFormat(ctx context.Context, file *models.File, target models.Format, quality float64) (*models.Blob, error) {
	if !c.IsSupported() {
		return nil, common.ErrNotSupported
	}
	if file == nil || file.Data == nil {
		return nil, common.ErrInvalidFileInput
	}
	if !target.Valid() {
		return nil, common.ErrUnsupportedFormat
	}
	if math.IsNaN(quality) || quality < 0 || quality > 1 {
		return nil, common.ErrInvalidQuality
	}

	h := c.handles.Create(models.NewBlob(file.Data, file.Type))
	defer c.handles.Revoke(h)

	src, err := c.load(h)
	if err != nil {
		return nil, common.Wrap(common.ErrImageLoadFailed, err)
	}

	// draw+encode is the expensive part; let other goroutines run first.
	runtime.Gosched()
	if err := ctx.Err(); err != nil {
		return nil, common.ConversionFailed(err)
	}

	return c.render(src, target, quality)
}

func (c *Converter) load(h string) (image.Image, error) {
	b, ok := c.handles.Resolve(h)
	if !ok {
		return nil, fmt.Errorf("handle %s revoked", h)
	}
	img, err := c.decode(bytes.NewReader(b.Bytes()))
	if err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("decoded image has no pixels")
	}
	return img, nil
}

func (c *Converter) render(src image.Image, target models.Format, quality float64) (blob *models.Blob, err error) {
	defer func() {
		if r := recover(); r != nil {
			blob, err = nil, common.ConversionFailed(fmt.Errorf("%v", r))
		}
	}()

	b := src.Bounds()
	surface := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(surface, image.Point{}, src, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := c.encoders[target](&buf, surface, quality); err != nil {
		return nil, common.ConversionFailed(err)
	}
	if buf.Len() == 0 {
		return nil, common.ErrConversionFailedBlob
	}

	return models.NewBlob(buf.Bytes(), target.MIMEType()), nil
}

func encodeJPEG(w io.Writer, img image.Image, quality float64) error {
	q := int(math.Round(quality * 100))
	if q < 1 {
		q = 1
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
}

func encodePNG(w io.Writer, img image.Image, _ float64) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	return enc.Encode(w, img)
}

// IsAvifFile reports whether f declares the AVIF MIME type or, failing that,
// has an .avif name.
func IsAvifFile(f *models.File) bool {
	if f == nil {
		return false
	}
	if f.Type == common.AvifMIMEType {
		return true
	}
	return strings.HasSuffix(strings.ToLower(f.Name), common.AvifExt)
}

// GenerateOutputFilename strips the last extension of originalName and
// appends the canonical extension of target.
func GenerateOutputFilename(originalName string, target models.Format) string {
	ext := target.Extension()
	if originalName == "" {
		return PlaceholderName + "." + ext
	}

	base := originalName
	if i := strings.LastIndexByte(base, '.'); i >= 0 && i < len(base)-1 && !strings.ContainsRune(base[i+1:], '/') {
		base = base[:i]
	}
	return base + "." + ext
}

// SupportedFormats lists the output formats in preference order.
func SupportedFormats() []models.Format {
	return []models.Format{models.FormatJPEG, models.FormatPNG}
}
