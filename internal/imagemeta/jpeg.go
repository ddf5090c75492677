package imagemeta

import (
	"bytes"
	"encoding/binary"
)

const (
	markerPrefix = 0xFF
	markerSOI    = 0xD8
	markerEOI    = 0xD9
	markerRST0   = 0xD0
	markerRST7   = 0xD7
	markerSOS    = 0xDA
	markerAPP1   = 0xE1
)

var exifHeader = []byte("Exif\x00\x00")

// FindExifPayload returns the TIFF structure carried by the first EXIF APP1
// segment of a JPEG stream, or nil when there is none. It never fails:
// anything malformed ends the scan with nil.
func FindExifPayload(buf []byte) []byte {
	payload, err := scanExif(buf)
	if err != nil {
		return nil
	}
	return payload
}

func scanExif(buf []byte) ([]byte, error) {
	if len(buf) < 2 || buf[0] != markerPrefix || buf[1] != markerSOI {
		return nil, ErrNotJPEG
	}
	c := newCursor(buf, binary.BigEndian)
	if err := c.seek(2); err != nil {
		return nil, formatErr("jpeg.scan", err)
	}
	for c.remaining() >= 2 {
		prefix, _ := c.u8()
		if prefix != markerPrefix {
			return nil, formatErr("jpeg.scan", ErrTruncated)
		}
		marker := buf[c.pos]
		if marker == markerPrefix {
			// fill byte: the next 0xFF may be the real marker prefix
			continue
		}
		c.pos++

		switch {
		case marker == markerSOI || marker == markerEOI,
			marker >= markerRST0 && marker <= markerRST7:
			continue
		case marker == markerSOS:
			return nil, ErrNoExif
		}

		segStart := c.pos
		length, err := c.u16()
		if err != nil {
			return nil, formatErr("jpeg.segment", err)
		}
		if length < 2 {
			return nil, formatErr("jpeg.segment", ErrTruncated)
		}
		segEnd := segStart + int(length)
		if segEnd > len(buf) {
			return nil, formatErr("jpeg.segment", ErrTruncated)
		}
		if marker == markerAPP1 {
			body := buf[c.pos:segEnd]
			if bytes.HasPrefix(body, exifHeader) {
				return body[len(exifHeader):], nil
			}
		}
		if err := c.seek(segEnd); err != nil {
			return nil, formatErr("jpeg.segment", err)
		}
	}
	return nil, ErrNoExif
}
