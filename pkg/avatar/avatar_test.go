package avatar

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestPrepare_CenteredSquare(t *testing.T) {
	up, err := Prepare(pngImage(t, 300, 200), nil, 400, 5<<20)
	require.NoError(t, err)
	assert.Equal(t, FileName, up.FileName)
	assert.Equal(t, "image/jpeg", up.ContentType)

	img := decodeJPEG(t, up.Data)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestPrepare_CropAndScale(t *testing.T) {
	up, err := Prepare(pngImage(t, 300, 300), &Rect{X: 10, Y: 20, Width: 200, Height: 100}, 50, 5<<20)
	require.NoError(t, err)

	img := decodeJPEG(t, up.Data)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 25, img.Bounds().Dy())
}

func TestPrepare_CropClampedToImage(t *testing.T) {
	up, err := Prepare(pngImage(t, 100, 100), &Rect{X: 50, Y: 50, Width: 500, Height: 500}, 0, 0)
	require.NoError(t, err)

	img := decodeJPEG(t, up.Data)
	assert.Equal(t, 50, img.Bounds().Dx())
}

func TestPrepare_Rejects(t *testing.T) {
	_, err := Prepare([]byte("definitely not an image"), nil, 400, 5<<20)
	assert.Equal(t, "Please select a valid image file", errors.Message(err))
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))

	big := pngImage(t, 64, 64)
	_, err = Prepare(big, nil, 400, int64(len(big)-1))
	assert.Contains(t, errors.Message(err), "Image size should be less than")

	_, err = Prepare(pngImage(t, 10, 10), &Rect{X: 50, Y: 50, Width: 5, Height: 5}, 400, 0)
	assert.Equal(t, "Crop area is outside the image", errors.Message(err))
}

func TestParseRect(t *testing.T) {
	r, err := ParseRect("1, 2,30,40")
	require.NoError(t, err)
	assert.Equal(t, Rect{X: 1, Y: 2, Width: 30, Height: 40}, r)

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "1,2,-3,4"} {
		_, err := ParseRect(bad)
		assert.Error(t, err, bad)
	}
}

func TestFit(t *testing.T) {
	w, h := fit(800, 400, 400)
	assert.Equal(t, 400, w)
	assert.Equal(t, 200, h)

	w, h = fit(100, 300, 150)
	assert.Equal(t, 50, w)
	assert.Equal(t, 150, h)

	w, h = fit(10, 10, 400)
	assert.Equal(t, 10, w)
	assert.Equal(t, 10, h)
}
