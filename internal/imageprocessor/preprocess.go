package imageprocessor

import (
	"image"

	"github.com/nfnt/resize"
)

// Preprocess resizes img to size×size and returns it as a CHW float32 tensor
// with fixed standardization (v*255 - 127.5) / 128, the input convention of
// the FaceNet family of embedding networks.
func Preprocess(img image.Image, size int) []float32 {
	resized := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height
	data := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			idx := y*width + x
			data[idx] = standardize(r)
			data[plane+idx] = standardize(g)
			data[2*plane+idx] = standardize(b)
		}
	}
	return data
}

// standardize maps a 16-bit color channel onto roughly [-1, 1].
func standardize(c uint32) float32 {
	v := float32(c>>8) // 0..255
	return (v - 127.5) / 128.0
}
