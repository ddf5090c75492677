package imagemeta

import (
	"errors"
	"strings"
	"time"

	"github.com/dharsanguruparan/PixelDrop/internal/model"
)

const (
	exifTimeLayout = "2006:01:02 15:04:05"
	isoTimeLayout  = "2006-01-02T15:04:05.000Z"
)

// ExtractExif returns the capture time, location and camera recorded in a
// JPEG's EXIF block, or nil when the buffer has none of them. It never fails;
// every parse error collapses to nil.
func ExtractExif(buf []byte) *model.ExifData {
	data, err := extractExif(buf)
	if err != nil {
		return nil
	}
	return data
}

func extractExif(buf []byte) (*model.ExifData, error) {
	payload, err := scanExif(buf)
	if err != nil {
		if errors.Is(err, ErrNotJPEG) {
			return nil, ErrNoExif
		}
		return nil, err
	}
	tags, err := ReadTags(payload)
	if err != nil {
		return nil, err
	}
	data := &model.ExifData{
		Created:  parseCaptureTime(tags.DateTimeOriginal),
		Location: location(tags),
		Camera:   FormatCamera(tags.Make, tags.Model),
	}
	if data.Created == nil && data.Location == nil && data.Camera == nil {
		return nil, ErrNoExif
	}
	return data, nil
}

// parseCaptureTime turns an EXIF "YYYY:MM:DD HH:MM:SS" stamp into an ISO-8601
// UTC string. EXIF carries no zone, so the stamp is read as UTC.
func parseCaptureTime(v string) *string {
	if v == "" {
		return nil
	}
	t, err := time.Parse(exifTimeLayout, v)
	if err != nil {
		return nil
	}
	s := t.UTC().Format(isoTimeLayout)
	return &s
}

func location(tags Tags) *model.Location {
	if tags.GPSLat == nil || tags.GPSLon == nil || tags.GPSLatRef == "" || tags.GPSLonRef == "" {
		return nil
	}
	return &model.Location{
		Lat: ToDecimal(*tags.GPSLat, tags.GPSLatRef),
		Lon: ToDecimal(*tags.GPSLon, tags.GPSLonRef),
	}
}

// FormatCamera joins make and model into a display name. Models that already
// start with the make (e.g. "Canon EOS R5") are returned as is.
func FormatCamera(maker, model string) *string {
	maker = strings.TrimSpace(maker)
	model = strings.TrimSpace(model)
	var name string
	switch {
	case maker == "" && model == "":
		return nil
	case maker == "":
		name = model
	case model == "":
		name = maker
	case strings.HasPrefix(model, maker):
		name = model
	default:
		name = maker + " " + model
	}
	return &name
}
