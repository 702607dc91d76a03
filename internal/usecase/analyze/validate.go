package analyze

import (
	"bytes"
	"path/filepath"
	"strings"

	"buildcheck/internal/domain"
)

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	riffMagic = []byte("RIFF")
	webpMagic = []byte("WEBP")
)

const signatureLen = 12

// ValidateImage runs the per-file checks in order; the first failure wins.
func ValidateImage(img domain.UploadedImage) (domain.RejectReason, bool) {
	if len(img.Data) == 0 {
		return domain.ReasonEmpty, false
	}
	if len(img.Data) > domain.MaxImageBytes {
		return domain.ReasonTooLarge, false
	}
	if !domain.AllowedExtensions[strings.ToLower(filepath.Ext(img.Filename))] {
		return domain.ReasonBadExtension, false
	}
	if ct := strings.TrimSpace(img.ContentType); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "image/") {
		return domain.ReasonBadContentType, false
	}
	if !HasImageSignature(img.Data) {
		return domain.ReasonBadSignature, false
	}
	return "", true
}

// HasImageSignature reports whether the leading bytes are a JPEG, PNG or
// WEBP header. Anything shorter than 12 bytes fails.
func HasImageSignature(data []byte) bool {
	if len(data) < signatureLen {
		return false
	}

	head := data[:signatureLen]
	switch {
	case head[0] == 0xFF && head[1] == 0xD8 && head[2] == 0xFF:
		return true
	case bytes.HasPrefix(head, pngMagic):
		return true
	case bytes.Equal(head[0:4], riffMagic) && bytes.Equal(head[8:12], webpMagic):
		return true
	}
	return false
}
