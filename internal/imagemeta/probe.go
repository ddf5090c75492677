package imagemeta

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/dharsanguruparan/PixelDrop/internal/model"
)

// Dimensions is the pixel size of an image.
type Dimensions struct {
	Width  int
	Height int
}

// Probe reads the pixel dimensions of a PNG, GIF, JPEG or WebP buffer. Only
// the container header is decoded.
func Probe(buf []byte) (Dimensions, error) {
	if len(buf) == 0 {
		return Dimensions{}, formatErr("probe", ErrEmptyInput)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Dimensions{}, formatErr("probe", ErrUnsupportedFormat)
		}
		return Dimensions{}, formatErr("probe", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Dimensions{}, formatErr("probe", ErrTruncated)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// Analyze probes the dimensions and extracts EXIF in one pass. Dimensions are
// required; EXIF is optional and never causes a failure.
func Analyze(buf []byte) (model.MetadataResult, error) {
	dims, err := Probe(buf)
	if err != nil {
		return model.MetadataResult{}, err
	}
	return model.MetadataResult{
		Width:  dims.Width,
		Height: dims.Height,
		Exif:   ExtractExif(buf),
	}, nil
}
