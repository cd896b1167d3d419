package validation

import (
	"bytes"
	"errors"
	"fmt"
)

// MaxImageSize is the upload cap for milestone images.
const MaxImageSize = 256 * 1024 // 262144 bytes

var (
	ErrUnsupportedImageType = errors.New("unsupported file type, use JPEG, PNG or WebP")
	ErrImageTooLarge        = errors.New("file too large")
	ErrImageContentMismatch = errors.New("file content does not match its declared type")
)

// imageSignature describes the magic bytes an image format must start with.
type imageSignature struct {
	offset int
	bytes  []byte
}

// Verified against the buffer itself, independent of the declared type, so a
// spoofed Content-Type header cannot smuggle a different payload through.
var imageSignatures = map[string]imageSignature{
	"image/jpeg": {offset: 0, bytes: []byte{0xFF, 0xD8, 0xFF}},
	"image/png":  {offset: 0, bytes: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	"image/webp": {offset: 0, bytes: []byte("RIFF")},
}

// webpMarker is the ASCII literal required at offset 8 of a WebP file,
// after the RIFF header and the 4-byte chunk size.
var webpMarker = []byte("WEBP")

// imageExtensions maps a verified MIME type to the extension used for the
// stored object key. Never derived from a client-supplied filename.
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ImageExtension returns the file extension for a verified MIME type.
func ImageExtension(mimeType string) (string, bool) {
	ext, ok := imageExtensions[mimeType]
	return ext, ok
}

// ValidateImage runs the upload validation pipeline in order, each step a
// hard stop: declared type whitelist, size cap, magic-byte signature.
func ValidateImage(data []byte, declaredType string) error {
	sig, ok := imageSignatures[declaredType]
	if !ok {
		return ErrUnsupportedImageType
	}

	if len(data) > MaxImageSize {
		return fmt.Errorf("%w: %d bytes (max %d). Compress the image first, e.g. https://compressjpeg.com/",
			ErrImageTooLarge, len(data), MaxImageSize)
	}

	if len(data) < sig.offset+len(sig.bytes) {
		return ErrImageContentMismatch
	}
	if !bytes.Equal(data[sig.offset:sig.offset+len(sig.bytes)], sig.bytes) {
		return ErrImageContentMismatch
	}

	if declaredType == "image/webp" {
		if len(data) < 12 || !bytes.Equal(data[8:12], webpMarker) {
			return ErrImageContentMismatch
		}
	}

	return nil
}
