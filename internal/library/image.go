package library

import (
	"bytes"

	"github.com/cesargomez89/openkaraoke/internal/constants"
)

type ImageFormat int

const (
	ImageUnknown ImageFormat = iota
	ImageJPEG
	ImagePNG
	ImageWebP
)

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
)

// DetectImageFormat sniffs the image signature from the leading bytes.
func DetectImageFormat(data []byte) ImageFormat {
	switch {
	case bytes.HasPrefix(data, jpegMagic):
		return ImageJPEG
	case bytes.HasPrefix(data, pngMagic):
		return ImagePNG
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return ImageWebP
	}
	return ImageUnknown
}

func (f ImageFormat) Ext() string {
	switch f {
	case ImageJPEG:
		return constants.ExtJPG
	case ImagePNG:
		return constants.ExtPNG
	case ImageWebP:
		return constants.ExtWebP
	}
	return ""
}

func (f ImageFormat) MimeType() string {
	switch f {
	case ImageJPEG:
		return constants.MimeTypeJPEG
	case ImagePNG:
		return constants.MimeTypePNG
	case ImageWebP:
		return constants.MimeTypeWebP
	}
	return "application/octet-stream"
}

func (f ImageFormat) String() string {
	switch f {
	case ImageJPEG:
		return "jpeg"
	case ImagePNG:
		return "png"
	case ImageWebP:
		return "webp"
	}
	return "unknown"
}

// ImageExts lists the extensions SaveImage can produce.
var ImageExts = []string{constants.ExtJPG, constants.ExtPNG, constants.ExtWebP}
