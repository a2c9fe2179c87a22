package utils

import (
	"bytes"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"io"

	"storefront-backend/pkg/logger"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// LogoMaxWidth bounds carrier logos; they are shown at badge size.
const LogoMaxWidth = 512

// ProcessImage decodes r, shrinks it to maxWidth and re-encodes it as WebP,
// falling back to JPEG when WebP encoding fails.
func ProcessImage(r io.Reader, filename string, maxWidth int) ([]byte, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", err
	}
	logger.Debug().Str("file", filename).Str("format", format).Msg("Processing image")

	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	err = webp.Encode(&buf, img, &webp.Options{
		Lossless: false,
		Quality:  85,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("WebP encoding failed, falling back to JPEG")
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}

	return buf.Bytes(), "image/webp", nil
}

// IsImage verifies simple content type
func IsImage(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/jpg", "image/png", "image/webp", "image/gif":
		return true
	}
	return false
}
