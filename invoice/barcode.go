package invoice

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
)

// RenderBarcodePNG encodes a value as a Code 128 barcode PNG, sized for
// printing on labels and invoices.
func RenderBarcodePNG(value string, width, height int) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("barcode value is empty")
	}
	if width <= 0 {
		width = 300
	}
	if height <= 0 {
		height = 80
	}

	code, err := code128.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode barcode: %v", err)
	}

	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to scale barcode: %v", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("failed to encode barcode PNG: %v", err)
	}
	return buf.Bytes(), nil
}
