package imagemeta

import (
	"errors"
	"fmt"
)

// FormatError reports malformed or unsupported binary input. Op names the
// parsing step that rejected the buffer.
type FormatError struct {
	Op  string
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("imagemeta: %s: %v", e.Op, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func formatErr(op string, err error) error {
	return &FormatError{Op: op, Err: err}
}

// IsFormatError reports whether err is, or wraps, a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

var (
	ErrEmptyInput        = errors.New("empty input")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTruncated         = errors.New("truncated data")
	ErrNotJPEG           = errors.New("not a jpeg stream")
	ErrByteOrder         = errors.New("unsupported tiff byte order")
	ErrBadMagic          = errors.New("bad tiff magic number")
	ErrTagType           = errors.New("unexpected tag type")
	ErrTagCount          = errors.New("unexpected tag value count")
	ErrZeroDenominator   = errors.New("rational with zero denominator")

	// ErrNoExif means the buffer carries no EXIF block, or one without any of
	// the fields the pipeline reads.
	ErrNoExif = errors.New("no usable exif data")
)
