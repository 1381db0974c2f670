package decoder

import (
	"fmt"
	"image"
	"image/color"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/reglet-dev/scannode/internal/domain/entities"
)

// RenderFrame draws one QR code per payload, side by side, on a white
// grayscale canvas of the given geometry. It produces test scenes for the
// simulated camera.
func RenderFrame(g entities.Geometry, payloads ...string) (*image.Gray, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	canvas := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for i := range canvas.Pix {
		canvas.Pix[i] = 0xff
	}
	if len(payloads) == 0 {
		return canvas, nil
	}

	cell := g.Width / len(payloads)
	size := min(cell, g.Height) * 9 / 10
	if size < 21 {
		return nil, fmt.Errorf("%d codes do not fit in %s", len(payloads), g)
	}

	writer := qrcode.NewQRCodeWriter()
	hints := map[gozxing.EncodeHintType]interface{}{
		gozxing.EncodeHintType_MARGIN: 2,
	}
	for i, payload := range payloads {
		matrix, err := writer.Encode(payload, gozxing.BarcodeFormat_QR_CODE, size, size, hints)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", payload, err)
		}

		offX := i*cell + (cell-matrix.GetWidth())/2
		offY := (g.Height - matrix.GetHeight()) / 2
		for y := 0; y < matrix.GetHeight(); y++ {
			for x := 0; x < matrix.GetWidth(); x++ {
				if matrix.Get(x, y) {
					canvas.SetGray(offX+x, offY+y, color.Gray{Y: 0})
				}
			}
		}
	}
	return canvas, nil
}
