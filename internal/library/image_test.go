package library

import "testing"

func TestDetectImageFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want ImageFormat
		ext  string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, ImageJPEG, ".jpg"},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, ImagePNG, ".png"},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBPVP8 "), ImageWebP, ".webp"},
		{"riff but wave", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), ImageUnknown, ""},
		{"truncated webp", []byte("RIFF\x24\x00"), ImageUnknown, ""},
		{"truncated png", []byte{0x89, 'P', 'N', 'G'}, ImageUnknown, ""},
		{"gif", []byte("GIF89a"), ImageUnknown, ""},
		{"empty", nil, ImageUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectImageFormat(tt.data)
			if got != tt.want {
				t.Errorf("DetectImageFormat() = %s, want %s", got, tt.want)
			}
			if got.Ext() != tt.ext {
				t.Errorf("Ext() = %q, want %q", got.Ext(), tt.ext)
			}
		})
	}
}

func TestImageFormat_MimeType(t *testing.T) {
	if ImageWebP.MimeType() != "image/webp" {
		t.Errorf("webp mime = %s", ImageWebP.MimeType())
	}
	if ImageUnknown.MimeType() != "application/octet-stream" {
		t.Errorf("unknown mime = %s", ImageUnknown.MimeType())
	}
}
