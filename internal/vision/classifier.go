package vision

import (
	"bytes"
	"image"

	// Register the decoders for the formats Telegram actually sends.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Brightness bands for the stub classifier. Real model inference is out of
// scope for local development; a deterministic label keeps the service fast
// and dependency-free while the rest of the pipeline is exercised end to end.
const (
	darkBrightnessMax   = 85
	mediumBrightnessMax = 170
)

const defaultLabel = "buckwheat with chicken"

// classify maps image bytes to a food label and a pseudo confidence score.
// Undecodable input falls back to the default label at low confidence
// instead of failing — the bot must always get an estimate back.
func classify(imageBytes []byte) (string, float64) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return defaultLabel, 0.5
	}

	switch brightness := averageBrightness(img); {
	case brightness < darkBrightnessMax:
		return "pilaf", 0.75
	case brightness < mediumBrightnessMax:
		return "buckwheat with chicken", 0.8
	default:
		return "cucumber tomato salad", 0.7
	}
}

// averageBrightness returns the mean RGB channel value (0-255) over all
// pixels.
func averageBrightness(img image.Image) float64 {
	bounds := img.Bounds()
	var sum float64
	var count int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// RGBA returns 16-bit channels; scale back to 0-255.
			sum += float64(r>>8) + float64(g>>8) + float64(b>>8)
			count += 3
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
