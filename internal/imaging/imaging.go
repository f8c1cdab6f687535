// Package imaging prepares uploaded pictures before they are sent to the
// image host.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

const MaxUploadBytes = 5 << 20

var (
	ErrUnsupportedFormat = errors.New("unsupported image format, only PNG, JPG and JPEG are allowed")
	ErrTooLarge          = errors.New("image is larger than 5MB")
)

// Shrink decodes a PNG or JPEG, scales it down to maxWidth keeping the aspect
// ratio, and re-encodes it as JPEG. Narrower images are only re-encoded.
func Shrink(r io.Reader, filename string, maxWidth uint) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	var img image.Image
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		img, err = png.Decode(bytes.NewReader(data))
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if maxWidth > 0 && uint(img.Bounds().Dx()) > maxWidth {
		img = resize.Resize(maxWidth, 0, img, resize.Lanczos3)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return out.Bytes(), nil
}

// JPEGName swaps the extension of filename for .jpg.
func JPEGName(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." {
		base = "upload"
	}
	return base + ".jpg"
}
