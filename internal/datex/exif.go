package datex

import (
	"errors"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

type EXIFDater struct{}

func NewEXIFDater() *EXIFDater {
	return &EXIFDater{}
}

var errNoEXIFDate = errors.New("no capture time found in EXIF")

// CaptureTime reads DateTimeOriginal (falling back to DateTimeDigitized)
// from the file's EXIF block.
func (e *EXIFDater) CaptureTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, err
	}

	if t, err := x.DateTime(); err == nil {
		return t, nil
	}

	if tag, err := x.Get(exif.DateTimeDigitized); err == nil {
		if strVal, err := tag.StringVal(); err == nil {
			if t, err := time.Parse("2006:01:02 15:04:05", strVal); err == nil {
				return t, nil
			}
		}
	}

	return time.Time{}, errNoEXIFDate
}
