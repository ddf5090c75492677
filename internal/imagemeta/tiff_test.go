package imagemeta

import (
	"errors"
	"math"
	"testing"
)

func TestReadTags_FullBlock(t *testing.T) {
	tags, err := ReadTags(canonTIFF())
	if err != nil {
		t.Fatalf("ReadTags() error = %v", err)
	}
	if tags.Make != "Canon" {
		t.Errorf("Make = %q, want Canon", tags.Make)
	}
	if tags.Model != "Canon EOS R5" {
		t.Errorf("Model = %q, want Canon EOS R5", tags.Model)
	}
	if tags.DateTimeOriginal != "2025:06:15 10:30:00" {
		t.Errorf("DateTimeOriginal = %q", tags.DateTimeOriginal)
	}
	if tags.GPSLatRef != "N" || tags.GPSLonRef != "W" {
		t.Errorf("refs = %q/%q, want N/W", tags.GPSLatRef, tags.GPSLonRef)
	}
	if tags.GPSLat == nil || tags.GPSLon == nil {
		t.Fatalf("expected both coordinates, got lat=%v lon=%v", tags.GPSLat, tags.GPSLon)
	}
	if lat := *tags.GPSLat; lat[0] != 51 || lat[1] != 30 || math.Abs(lat[2]-26.46) > 1e-9 {
		t.Errorf("GPSLat = %v", lat)
	}
	if lon := *tags.GPSLon; lon[0] != 0 || lon[1] != 7 || math.Abs(lon[2]-40.08) > 1e-9 {
		t.Errorf("GPSLon = %v", lon)
	}
}

func TestReadTags_InlineASCII(t *testing.T) {
	tags, err := ReadTags(buildTIFF([]tiffEntry{asciiTag(tagMake, "LG"), asciiTag(tagModel, "G7 ")}, nil, nil))
	if err != nil {
		t.Fatalf("ReadTags() error = %v", err)
	}
	if tags.Make != "LG" || tags.Model != "G7" {
		t.Errorf("got make=%q model=%q, want LG/G7", tags.Make, tags.Model)
	}
}

func TestReadTags_IgnoresOtherTags(t *testing.T) {
	tags, err := ReadTags(buildTIFF([]tiffEntry{shortTag(0x0112, 6)}, nil, nil))
	if err != nil {
		t.Fatalf("ReadTags() error = %v", err)
	}
	if tags != (Tags{}) {
		t.Errorf("ReadTags() = %+v, want zero tags", tags)
	}
}

func TestReadTags_Malformed(t *testing.T) {
	valid := canonTIFF()

	bigEndian := append([]byte{}, valid...)
	bigEndian[0], bigEndian[1] = 'M', 'M'

	badMagic := append([]byte{}, valid...)
	badMagic[2] = 43

	ifdPastEnd := append([]byte{}, valid...)
	ifdPastEnd[4] = 0xFF

	cutEntries := valid[:8+2+ifdEntrySize]

	makeAsShort := buildTIFF([]tiffEntry{shortTag(tagMake, 1)}, nil, nil)

	withOffset := buildTIFF([]tiffEntry{asciiTag(tagMake, "Fujifilm")}, nil, nil)
	valueOffsetPastEnd := withOffset[:len(withOffset)-4]

	zeroDen := buildTIFF(nil, nil, []tiffEntry{
		rationalTag(tagGPSLatitude, [2]uint32{51, 1}, [2]uint32{30, 0}, [2]uint32{0, 1}),
	})

	twoRationals := buildTIFF(nil, nil, []tiffEntry{
		rationalTag(tagGPSLatitude, [2]uint32{51, 1}, [2]uint32{30, 1}),
	})

	danglingPointer := buildTIFF([]tiffEntry{longTag(tagExifIFD, 4096)}, nil, nil)

	cases := []struct {
		name string
		buf  []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"big endian", bigEndian, ErrByteOrder},
		{"bad magic", badMagic, ErrBadMagic},
		{"ifd offset past end", ifdPastEnd, ErrTruncated},
		{"entry table cut short", cutEntries, ErrTruncated},
		{"make with wrong type", makeAsShort, ErrTagType},
		{"value offset past end", valueOffsetPastEnd, ErrTruncated},
		{"zero denominator", zeroDen, ErrZeroDenominator},
		{"wrong rational count", twoRationals, ErrTagCount},
		{"dangling exif pointer", danglingPointer, ErrTruncated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadTags(tc.buf)
			if !errors.Is(err, tc.want) {
				t.Fatalf("ReadTags() error = %v, want %v", err, tc.want)
			}
			if !IsFormatError(err) {
				t.Errorf("expected *FormatError, got %T", err)
			}
		})
	}
}
