package ocr

import (
	"bytes"
	"image/color"

	"github.com/disintegration/imaging"
)

// Enhancement configures the contrast-enhanced strategy.
type Enhancement struct {
	// Contrast is the percentage passed to imaging.AdjustContrast (-100..100).
	Contrast float64
	// Threshold binarizes the grayscale image; 0 disables it.
	Threshold uint8
}

// DefaultEnhancement is grayscale, +40% contrast and a 160 threshold.
var DefaultEnhancement = Enhancement{Contrast: 40, Threshold: 160}

// Enhance decodes image, applies grayscale, contrast and threshold, and
// re-encodes it as PNG.
func Enhance(image []byte, e Enhancement) ([]byte, error) {
	const op = "Enhance"

	if len(image) == 0 {
		return nil, NewOCRError(op, ErrEmptyImage, "")
	}

	img, err := imaging.Decode(bytes.NewReader(image), imaging.AutoOrientation(true))
	if err != nil {
		return nil, NewOCRError(op, ErrPreprocessFailed, err.Error())
	}

	out := imaging.Grayscale(img)
	if e.Contrast != 0 {
		out = imaging.AdjustContrast(out, e.Contrast)
	}
	if e.Threshold > 0 {
		limit := e.Threshold
		out = imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
			v := uint8(0)
			if c.R >= limit {
				v = 255
			}
			return color.NRGBA{R: v, G: v, B: v, A: c.A}
		})
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, NewOCRError(op, ErrPreprocessFailed, err.Error())
	}
	return buf.Bytes(), nil
}
