package engine

import (
	"bytes"
	"image"
	"image/png"
)

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, newError(CodeInternal, "png encode failed", err)
	}
	return buf.Bytes(), nil
}
