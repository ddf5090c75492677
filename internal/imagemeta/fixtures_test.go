package imagemeta

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func encodePixel(t *testing.T, format imaging.Format) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func pngPixel(t *testing.T) []byte  { return encodePixel(t, imaging.PNG) }
func gifPixel(t *testing.T) []byte  { return encodePixel(t, imaging.GIF) }
func jpegPixel(t *testing.T) []byte { return encodePixel(t, imaging.JPEG) }

// webpPixel is a lossless (VP8L) 1x1 WebP: RIFF header, one VP8L chunk whose
// bitstream header encodes width-1 = 0, height-1 = 0, no alpha, version 0.
func webpPixel() []byte {
	chunk := []byte{0x2f, 0x00, 0x00, 0x00, 0x00}
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(4+8+len(chunk)+1))
	b.WriteString("WEBP")
	b.WriteString("VP8L")
	binary.Write(&b, binary.LittleEndian, uint32(len(chunk)))
	b.Write(chunk)
	b.WriteByte(0) // pad to even chunk size
	return b.Bytes()
}

type tiffEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiTag(tag uint16, s string) tiffEntry {
	b := append([]byte(s), 0)
	return tiffEntry{tag: tag, typ: typeASCII, count: uint32(len(b)), data: b}
}

func shortTag(tag uint16, v uint16) tiffEntry {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return tiffEntry{tag: tag, typ: 3, count: 1, data: b}
}

func rationalTag(tag uint16, vals ...[2]uint32) tiffEntry {
	b := make([]byte, 0, 8*len(vals))
	for _, v := range vals {
		b = binary.LittleEndian.AppendUint32(b, v[0])
		b = binary.LittleEndian.AppendUint32(b, v[1])
	}
	return tiffEntry{tag: tag, typ: typeRational, count: uint32(len(vals)), data: b}
}

func longTag(tag uint16, v uint32) tiffEntry {
	b := binary.LittleEndian.AppendUint32(nil, v)
	return tiffEntry{tag: tag, typ: typeLong, count: 1, data: b}
}

func ifdSize(entries []tiffEntry) int {
	size := 2 + ifdEntrySize*len(entries) + 4
	for _, e := range entries {
		if len(e.data) > 4 {
			size += len(e.data) + len(e.data)%2
		}
	}
	return size
}

// layoutIFD encodes a directory that starts at absolute offset start, with
// out-of-line values placed right after the entry table.
func layoutIFD(start int, entries []tiffEntry) []byte {
	le := binary.LittleEndian
	dataOff := start + 2 + ifdEntrySize*len(entries) + 4
	head := le.AppendUint16(nil, uint16(len(entries)))
	var data []byte
	for _, e := range entries {
		head = le.AppendUint16(head, e.tag)
		head = le.AppendUint16(head, e.typ)
		head = le.AppendUint32(head, e.count)
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			head = append(head, v...)
			continue
		}
		head = le.AppendUint32(head, uint32(dataOff+len(data)))
		data = append(data, e.data...)
		if len(e.data)%2 == 1 {
			data = append(data, 0)
		}
	}
	head = le.AppendUint32(head, 0)
	return append(head, data...)
}

// buildTIFF assembles a little-endian TIFF with IFD0 and optional Exif and
// GPS sub-directories.
func buildTIFF(ifd0, exifIFD, gpsIFD []tiffEntry) []byte {
	entries := append([]tiffEntry(nil), ifd0...)
	exifAt, gpsAt := -1, -1
	if exifIFD != nil {
		exifAt = len(entries)
		entries = append(entries, longTag(tagExifIFD, 0))
	}
	if gpsIFD != nil {
		gpsAt = len(entries)
		entries = append(entries, longTag(tagGPSIFD, 0))
	}
	next := 8 + ifdSize(entries)
	var tail []byte
	if exifIFD != nil {
		entries[exifAt] = longTag(tagExifIFD, uint32(next))
		sub := layoutIFD(next, exifIFD)
		tail = append(tail, sub...)
		next += len(sub)
	}
	if gpsIFD != nil {
		entries[gpsAt] = longTag(tagGPSIFD, uint32(next))
		tail = append(tail, layoutIFD(next, gpsIFD)...)
	}
	out := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	out = append(out, layoutIFD(8, entries)...)
	return append(out, tail...)
}

// withAPP1 splices an APP1 segment carrying payload right after SOI.
func withAPP1(t *testing.T, jpg []byte, payload []byte) []byte {
	t.Helper()
	if len(jpg) < 2 || jpg[0] != 0xFF || jpg[1] != 0xD8 {
		t.Fatalf("fixture is not a jpeg")
	}
	seg := []byte{0xFF, markerAPP1}
	seg = binary.BigEndian.AppendUint16(seg, uint16(2+len(payload)))
	seg = append(seg, payload...)
	out := append([]byte{}, jpg[:2]...)
	out = append(out, seg...)
	return append(out, jpg[2:]...)
}

func withExif(t *testing.T, jpg []byte, tiff []byte) []byte {
	return withAPP1(t, jpg, append([]byte("Exif\x00\x00"), tiff...))
}

func londonGPS() []tiffEntry {
	return []tiffEntry{
		asciiTag(tagGPSLatitudeRef, "N"),
		rationalTag(tagGPSLatitude, [2]uint32{51, 1}, [2]uint32{30, 1}, [2]uint32{2646, 100}),
		asciiTag(tagGPSLongitudeRef, "W"),
		rationalTag(tagGPSLongitude, [2]uint32{0, 1}, [2]uint32{7, 1}, [2]uint32{4008, 100}),
	}
}

func canonTIFF() []byte {
	return buildTIFF(
		[]tiffEntry{asciiTag(tagMake, "Canon"), asciiTag(tagModel, "Canon EOS R5")},
		[]tiffEntry{asciiTag(tagDateTimeOriginal, "2025:06:15 10:30:00")},
		londonGPS(),
	)
}
