// Package convertertest provides fixtures for code that depends on the
// converter: real AVIF files, PNG-encoded pixels dressed up as AVIF files,
// and a converter that decodes the latter without the AVIF codec.
package convertertest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"time"

	"github.com/dmitrijs2005/avifconv/internal/common"
	"github.com/dmitrijs2005/avifconv/internal/converter"
	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/gen2brain/avif"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / max(w, 1)), G: uint8(y * 255 / max(h, 1)), B: 128, A: 200})
		}
	}
	return img
}

// Pixels returns PNG bytes of a w×h gradient with partial transparency.
func Pixels(w, h int) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(w, h)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// EncodedAvifFile is a real AVIF encoding of the Pixels gradient, readable
// by the default decoder.
func EncodedAvifFile(name string, w, h int) *models.File {
	var buf bytes.Buffer
	if err := avif.Encode(&buf, gradient(w, h)); err != nil {
		panic(err)
	}
	return &models.File{Name: name, Type: common.AvifMIMEType, Data: buf.Bytes(), ModTime: time.Now()}
}

// AvifFile is a decodable input file named name with the AVIF MIME type.
func AvifFile(name string, w, h int) *models.File {
	return &models.File{Name: name, Type: common.AvifMIMEType, Data: Pixels(w, h), ModTime: time.Now()}
}

// BrokenAvifFile has an AVIF name but bytes no decoder accepts.
func BrokenAvifFile(name string) *models.File {
	return &models.File{Name: name, Type: common.AvifMIMEType, Data: []byte("not an image")}
}

// New returns a converter whose decoder reads PNG bytes.
func New(opts ...converter.Option) *converter.Converter {
	return converter.New(append([]converter.Option{converter.WithDecoder(png.Decode)}, opts...)...)
}
