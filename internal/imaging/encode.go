package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
)

// EncodePNG encodes an image as a base64 PNG string, the wire form used
// for every image artifact the server returns.
func EncodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// MaskToImage renders a boolean mask as a binary grayscale image, with
// true pixels white (255).
func MaskToImage(mask []bool, width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i, v := range mask {
		if v {
			img.Pix[i] = 255
		}
	}
	return img
}

// MapToImage renders a [0,1] float grid as an 8-bit grayscale image.
func MapToImage(values []float64, width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i, v := range values {
		switch {
		case v <= 0:
			img.Pix[i] = 0
		case v >= 1:
			img.Pix[i] = 255
		default:
			img.Pix[i] = uint8(v*255 + 0.5)
		}
	}
	return img
}
