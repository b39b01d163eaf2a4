package msinet

import (
	"image"
	_ "image/jpeg" // jpeg decoding for uploaded slides
	_ "image/png"  // png decoding for uploaded slides
	"os"

	"github.com/histolab/msinet-go/internal/errors"
)

// LoadImageTensor decodes the image at path and returns a float32 slice laid
// out in NHWC order with shape (1, InputHeight, InputWidth, InputChannels).
// The image is resampled to the fixed model input size and pixel values are
// scaled to the 0-1 range.
func LoadImageTensor(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("msinet").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.New(err).
			Component("msinet").
			Category(errors.CategoryImageDecode).
			Context("path", path).
			Build()
	}

	return imageToTensor(img), nil
}

// imageToTensor resamples img to the model input size with nearest-neighbor
// sampling and flattens it to NHWC float32 in the 0-1 range.
func imageToTensor(img image.Image) []float32 {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	out := make([]float32, 1*InputHeight*InputWidth*InputChannels)

	// iterate rows (y) then columns (x) so memory layout matches NHWC
	for y := 0; y < InputHeight; y++ {
		srcY := y * srcH / InputHeight
		for x := 0; x < InputWidth; x++ {
			srcX := x * srcW / InputWidth

			r32, g32, b32, _ := img.At(bounds.Min.X+srcX, bounds.Min.Y+srcY).RGBA()
			// Convert 16-bit color to 8-bit
			r := float32(r32 >> 8)
			g := float32(g32 >> 8)
			b := float32(b32 >> 8)

			base := ((y * InputWidth) + x) * InputChannels
			out[base+0] = r / 255.0
			out[base+1] = g / 255.0
			out[base+2] = b / 255.0
		}
	}

	return out
}
