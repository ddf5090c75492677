package imagemeta

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// TIFF tag ids read by the pipeline.
const (
	tagMake             = 0x010F
	tagModel            = 0x0110
	tagExifIFD          = 0x8769
	tagGPSIFD           = 0x8825
	tagDateTimeOriginal = 0x9003
	tagGPSLatitudeRef   = 0x0001
	tagGPSLatitude      = 0x0002
	tagGPSLongitudeRef  = 0x0003
	tagGPSLongitude     = 0x0004
)

// TIFF field types.
const (
	typeASCII    = 2
	typeLong     = 4
	typeRational = 5
)

const ifdEntrySize = 12

// Tags is the subset of an EXIF block the pipeline consumes. Absent string
// tags are empty; absent coordinates are nil.
type Tags struct {
	Make             string
	Model            string
	DateTimeOriginal string
	GPSLat           *[3]float64
	GPSLatRef        string
	GPSLon           *[3]float64
	GPSLonRef        string
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	// value holds the 4 value-or-offset bytes as stored.
	value []byte
}

// ReadTags parses a little-endian TIFF structure (the payload of an EXIF APP1
// segment) and returns the tags of interest. Any structural problem is a
// *FormatError; nothing is guessed.
func ReadTags(tiff []byte) (Tags, error) {
	var tags Tags
	c := newCursor(tiff, binary.LittleEndian)

	order, err := c.bytes(2)
	if err != nil {
		return tags, formatErr("tiff.header", err)
	}
	if order[0] != 'I' || order[1] != 'I' {
		return tags, formatErr("tiff.header", ErrByteOrder)
	}
	magic, err := c.u16()
	if err != nil {
		return tags, formatErr("tiff.header", err)
	}
	if magic != 42 {
		return tags, formatErr("tiff.header", ErrBadMagic)
	}
	ifd0, err := c.u32()
	if err != nil {
		return tags, formatErr("tiff.header", err)
	}

	entries, err := readIFD(c, ifd0)
	if err != nil {
		return tags, formatErr("tiff.ifd0", err)
	}
	for _, e := range entries {
		switch e.tag {
		case tagMake:
			tags.Make, err = asciiValue(c, e)
		case tagModel:
			tags.Model, err = asciiValue(c, e)
		case tagExifIFD:
			err = readExifIFD(c, e, &tags)
		case tagGPSIFD:
			err = readGPSIFD(c, e, &tags)
		}
		if err != nil {
			return tags, formatErr(fmt.Sprintf("tiff.tag(0x%04x)", e.tag), err)
		}
	}
	return tags, nil
}

func readExifIFD(c *cursor, ptr ifdEntry, tags *Tags) error {
	entries, err := followPointer(c, ptr)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.tag != tagDateTimeOriginal {
			continue
		}
		if tags.DateTimeOriginal, err = asciiValue(c, e); err != nil {
			return err
		}
	}
	return nil
}

func readGPSIFD(c *cursor, ptr ifdEntry, tags *Tags) error {
	entries, err := followPointer(c, ptr)
	if err != nil {
		return err
	}
	for _, e := range entries {
		switch e.tag {
		case tagGPSLatitudeRef:
			tags.GPSLatRef, err = asciiValue(c, e)
		case tagGPSLongitudeRef:
			tags.GPSLonRef, err = asciiValue(c, e)
		case tagGPSLatitude:
			tags.GPSLat, err = dmsValue(c, e)
		case tagGPSLongitude:
			tags.GPSLon, err = dmsValue(c, e)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func followPointer(c *cursor, ptr ifdEntry) ([]ifdEntry, error) {
	if ptr.typ != typeLong || ptr.count != 1 {
		return nil, ErrTagType
	}
	return readIFD(c, c.order.Uint32(ptr.value))
}

// readIFD reads the entry table of the directory at off. The cursor is left
// just past the table.
func readIFD(c *cursor, off uint32) ([]ifdEntry, error) {
	if err := c.seek(int(off)); err != nil {
		return nil, err
	}
	n, err := c.u16()
	if err != nil {
		return nil, err
	}
	if c.remaining() < int(n)*ifdEntrySize {
		return nil, ErrTruncated
	}
	entries := make([]ifdEntry, 0, n)
	for i := 0; i < int(n); i++ {
		var e ifdEntry
		if e.tag, err = c.u16(); err != nil {
			return nil, err
		}
		if e.typ, err = c.u16(); err != nil {
			return nil, err
		}
		if e.count, err = c.u32(); err != nil {
			return nil, err
		}
		if e.value, err = c.bytes(4); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// valueBytes returns the size*count bytes of an entry, inline when they fit in
// the 4-byte value field and at the stored offset otherwise.
func valueBytes(c *cursor, e ifdEntry, size uint32) ([]byte, error) {
	total := uint64(size) * uint64(e.count)
	if total <= 4 {
		return e.value[:total], nil
	}
	if total > uint64(len(c.buf)) {
		return nil, ErrTruncated
	}
	return c.at(c.order.Uint32(e.value), uint32(total))
}

func asciiValue(c *cursor, e ifdEntry) (string, error) {
	if e.typ != typeASCII {
		return "", ErrTagType
	}
	b, err := valueBytes(c, e, 1)
	if err != nil {
		return "", err
	}
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b)), nil
}

// dmsValue reads three RATIONALs: degrees, minutes, seconds.
func dmsValue(c *cursor, e ifdEntry) (*[3]float64, error) {
	if e.typ != typeRational {
		return nil, ErrTagType
	}
	if e.count != 3 {
		return nil, ErrTagCount
	}
	b, err := valueBytes(c, e, 8)
	if err != nil {
		return nil, err
	}
	var out [3]float64
	for i := range out {
		num := c.order.Uint32(b[i*8:])
		den := c.order.Uint32(b[i*8+4:])
		if den == 0 {
			return nil, ErrZeroDenominator
		}
		out[i] = float64(num) / float64(den)
	}
	return &out, nil
}
