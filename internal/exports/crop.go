package exports

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

type CropOptions struct {
	// Tolerance is the per-channel distance (0-255) a pixel may have from the
	// border colour and still count as padding.
	Tolerance   uint8
	JPEGQuality int
}

func DefaultCropOptions() CropOptions {
	return CropOptions{Tolerance: 8, JPEGQuality: 95}
}

// TrimBorders removes rows and columns of uniform padding from every edge.
// The padding colour is taken from the top-left pixel; fully transparent
// pixels always count as padding. An image that is nothing but padding is
// returned unchanged.
func TrimBorders(img image.Image, tolerance uint8) (image.Image, bool) {
	b := img.Bounds()
	if b.Empty() {
		return img, false
	}

	ref := color.NRGBAModel.Convert(img.At(b.Min.X, b.Min.Y)).(color.NRGBA)
	isBorder := func(x, y int) bool {
		c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
		if c.A == 0 {
			return true
		}
		return near(c.R, ref.R, tolerance) && near(c.G, ref.G, tolerance) &&
			near(c.B, ref.B, tolerance) && near(c.A, ref.A, tolerance)
	}
	rowIsBorder := func(y, x0, x1 int) bool {
		for x := x0; x < x1; x++ {
			if !isBorder(x, y) {
				return false
			}
		}
		return true
	}
	colIsBorder := func(x, y0, y1 int) bool {
		for y := y0; y < y1; y++ {
			if !isBorder(x, y) {
				return false
			}
		}
		return true
	}

	top := b.Min.Y
	for top < b.Max.Y && rowIsBorder(top, b.Min.X, b.Max.X) {
		top++
	}
	if top == b.Max.Y {
		return img, false
	}
	bottom := b.Max.Y
	for bottom > top && rowIsBorder(bottom-1, b.Min.X, b.Max.X) {
		bottom--
	}
	left := b.Min.X
	for left < b.Max.X && colIsBorder(left, top, bottom) {
		left++
	}
	right := b.Max.X
	for right > left && colIsBorder(right-1, top, bottom) {
		right--
	}

	crop := image.Rect(left, top, right, bottom)
	if crop == b {
		return img, false
	}

	dst := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(dst, dst.Bounds(), img, crop.Min, draw.Src)
	return dst, true
}

func near(a, b, tolerance uint8) bool {
	if a > b {
		return a-b <= tolerance
	}
	return b-a <= tolerance
}

// CropFile trims the image at path. JPEG and PNG files are rewritten in
// place; any other decodable format is converted to a .jpg next to it and
// the original is removed. The returned path is the file to use from now on.
func CropFile(path string, opts CropOptions) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return path, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return path, ErrEmptyImage
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return path, fmt.Errorf("failed to decode image: %w", err)
	}

	cropped, changed := TrimBorders(img, opts.Tolerance)
	keepsFormat := format == "jpeg" || format == "png"
	if !changed && keepsFormat {
		return path, nil
	}

	outPath := path
	if !keepsFormat {
		outPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".jpg"
		format = "jpeg"
	}

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, cropped)
	default:
		err = jpeg.Encode(&buf, cropped, &jpeg.Options{Quality: jpegQuality(opts.JPEGQuality)})
	}
	if err != nil {
		return path, fmt.Errorf("failed to encode %s: %w", format, err)
	}

	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return path, fmt.Errorf("failed to write cropped image: %w", err)
	}
	if outPath != path {
		if err := os.Remove(path); err != nil {
			return outPath, fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
		}
	}
	return outPath, nil
}

func jpegQuality(q int) int {
	if q < 1 || q > 100 {
		return 95
	}
	return q
}
