package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestShrinkResizesWideImages(t *testing.T) {
	out, err := Shrink(bytes.NewReader(pngOf(t, 1600, 400)), "wide.PNG", 800)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestShrinkKeepsNarrowImages(t *testing.T) {
	out, err := Shrink(bytes.NewReader(pngOf(t, 300, 100)), "small.png", 800)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
}

func TestShrinkRejects(t *testing.T) {
	_, err := Shrink(strings.NewReader("GIF89a"), "anim.gif", 800)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Shrink(strings.NewReader("not a png"), "broken.png", 800)
	assert.Error(t, err)

	_, err = Shrink(bytes.NewReader(make([]byte, MaxUploadBytes+10)), "huge.jpg", 800)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestJPEGName(t *testing.T) {
	assert.Equal(t, "rose.jpg", JPEGName("rose.png"))
	assert.Equal(t, "rose.jpg", JPEGName("/tmp/rose.jpeg"))
	assert.Equal(t, "upload.jpg", JPEGName(""))
}
