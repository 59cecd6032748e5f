package imageproc

import "image"

// enhanceAuto stretches levels with a 1% clip on both ends, then adds a
// little saturation and sharpness.
func enhanceAuto(img *image.NRGBA) *image.NRGBA {
	img = autoContrast(img, 1)
	img = adjustColor(img, 1.1)
	return adjustSharpness(img, 1.3)
}

func enhanceBright(img *image.NRGBA) *image.NRGBA { return adjustBrightness(img, 1.3) }

func enhanceDark(img *image.NRGBA) *image.NRGBA { return adjustBrightness(img, 0.7) }

func enhanceContrast(img *image.NRGBA) *image.NRGBA { return adjustContrast(img, 1.5) }

func enhanceSaturation(img *image.NRGBA) *image.NRGBA { return adjustColor(img, 1.6) }

func enhanceSharpen(img *image.NRGBA) *image.NRGBA { return adjustSharpness(img, 2.5) }

func enhanceSmooth(img *image.NRGBA) *image.NRGBA { return smoothMore(img) }
