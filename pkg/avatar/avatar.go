// Package avatar turns a user-picked image into the cropped JPEG the API stores.
package avatar

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"strconv"
	"strings"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/gabriel-vasile/mimetype"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	FileName = "cropped-avatar.jpg"
	Quality  = 90
)

// Rect is a crop area in source pixels
type Rect struct {
	X, Y, Width, Height int
}

// ParseRect parses "x,y,width,height"
func ParseRect(s string) (Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Rect{}, fmt.Errorf("crop must be x,y,width,height")
	}
	var vals [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return Rect{}, fmt.Errorf("invalid crop value %q", p)
		}
		vals[i] = n
	}
	return Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

func invalid(msg string) error {
	return errors.ValidationError(map[string]string{"avatar": msg})
}

// Check rejects non-images and files larger than maxBytes
func Check(data []byte, maxBytes int64) error {
	if !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		return invalid("Please select a valid image file")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return invalid(fmt.Sprintf("Image size should be less than %dMB", maxBytes>>20))
	}
	return nil
}

// Prepare checks data, crops it (centered square when crop is nil), scales
// it down so neither side exceeds size and encodes it as JPEG.
func Prepare(data []byte, crop *Rect, size int, maxBytes int64) (api.Upload, error) {
	if err := Check(data, maxBytes); err != nil {
		return api.Upload{}, err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return api.Upload{}, invalid("Please select a valid image file")
	}

	area, err := cropArea(src.Bounds(), crop)
	if err != nil {
		return api.Upload{}, err
	}

	w, h := fit(area.Dx(), area.Dy(), size)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, area, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return api.Upload{}, fmt.Errorf("encode avatar: %w", err)
	}

	return api.Upload{FileName: FileName, ContentType: "image/jpeg", Data: buf.Bytes()}, nil
}

func cropArea(bounds image.Rectangle, crop *Rect) (image.Rectangle, error) {
	if crop == nil {
		side := min(bounds.Dx(), bounds.Dy())
		x := bounds.Min.X + (bounds.Dx()-side)/2
		y := bounds.Min.Y + (bounds.Dy()-side)/2
		return image.Rect(x, y, x+side, y+side), nil
	}

	area := image.Rect(crop.X, crop.Y, crop.X+crop.Width, crop.Y+crop.Height).
		Add(bounds.Min).
		Intersect(bounds)
	if area.Empty() {
		return image.Rectangle{}, invalid("Crop area is outside the image")
	}
	return area, nil
}

// fit scales w x h down so the longer side is at most size
func fit(w, h, size int) (int, int) {
	if size <= 0 || (w <= size && h <= size) {
		return w, h
	}
	if w >= h {
		return size, max(1, h*size/w)
	}
	return max(1, w*size/h), size
}
