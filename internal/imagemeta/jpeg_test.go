package imagemeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func segment(marker byte, body []byte) []byte {
	seg := []byte{0xFF, marker}
	seg = binary.BigEndian.AppendUint16(seg, uint16(2+len(body)))
	return append(seg, body...)
}

func TestFindExifPayload_ReturnsTIFFBytes(t *testing.T) {
	tiff := canonTIFF()
	got := FindExifPayload(withExif(t, jpegPixel(t), tiff))
	if !bytes.Equal(got, tiff) {
		t.Fatalf("FindExifPayload() returned %d bytes, want the %d byte tiff block", len(got), len(tiff))
	}
}

func TestFindExifPayload_SkipsOtherSegments(t *testing.T) {
	tiff := canonTIFF()
	var buf []byte
	buf = append(buf, 0xFF, 0xD8)
	buf = append(buf, segment(0xE0, []byte("JFIF\x00\x01\x02"))...)
	// an APP1 that is XMP, not EXIF
	buf = append(buf, segment(0xE1, []byte("http://ns.adobe.com/xap/1.0/\x00"))...)
	buf = append(buf, 0xFF, 0xFF, 0xFF) // fill bytes before the next marker
	buf = append(buf, segment(0xE1, append([]byte("Exif\x00\x00"), tiff...))...)
	buf = append(buf, 0xFF, 0xD9)

	if got := FindExifPayload(buf); !bytes.Equal(got, tiff) {
		t.Fatalf("FindExifPayload() = %d bytes, want %d", len(got), len(tiff))
	}
}

func TestFindExifPayload_StandaloneMarkers(t *testing.T) {
	tiff := canonTIFF()
	buf := []byte{0xFF, 0xD8, 0xFF, 0xD0, 0xFF, 0xD7}
	buf = append(buf, segment(0xE1, append([]byte("Exif\x00\x00"), tiff...))...)
	if got := FindExifPayload(buf); !bytes.Equal(got, tiff) {
		t.Fatalf("FindExifPayload() = %d bytes, want %d", len(got), len(tiff))
	}
}

func TestFindExifPayload_Nil(t *testing.T) {
	tiff := canonTIFF()
	afterScan := []byte{0xFF, 0xD8}
	afterScan = append(afterScan, segment(0xDA, []byte{0x01, 0x02})...)
	afterScan = append(afterScan, segment(0xE1, append([]byte("Exif\x00\x00"), tiff...))...)

	truncatedLength := append(withExif(t, jpegPixel(t), tiff)[:4], 0x00)

	overrun := []byte{0xFF, 0xD8, 0xFF, 0xE1, 0x40, 0x00}
	overrun = append(overrun, []byte("Exif\x00\x00")...)

	cases := map[string][]byte{
		"empty":             nil,
		"png":               pngPixel(t),
		"random":            {0x13, 0x37, 0xBE, 0xEF},
		"jpeg without app1": jpegPixel(t),
		"exif after sos":    afterScan,
		"truncated length":  truncatedLength,
		"length overrun":    overrun,
		"length below two":  {0xFF, 0xD8, 0xFF, 0xE1, 0x00, 0x01},
		"soi only":          {0xFF, 0xD8},
		"garbage after soi": {0xFF, 0xD8, 0x00, 0x11, 0x22},
	}
	for name, buf := range cases {
		t.Run(name, func(t *testing.T) {
			if got := FindExifPayload(buf); got != nil {
				t.Errorf("FindExifPayload() = %d bytes, want nil", len(got))
			}
		})
	}
}

func TestScanExif_Reasons(t *testing.T) {
	if _, err := scanExif([]byte("GIF89a")); !errors.Is(err, ErrNotJPEG) {
		t.Errorf("scanExif(gif) error = %v, want ErrNotJPEG", err)
	}
	if _, err := scanExif(jpegPixel(t)); !errors.Is(err, ErrNoExif) {
		t.Errorf("scanExif(plain jpeg) error = %v, want ErrNoExif", err)
	}
	_, err := scanExif([]byte{0xFF, 0xD8, 0xFF, 0xE1, 0x40, 0x00})
	if !errors.Is(err, ErrTruncated) || !IsFormatError(err) {
		t.Errorf("scanExif(overrun) error = %v, want truncated *FormatError", err)
	}
}
