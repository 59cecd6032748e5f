package imageproc

import (
	"image"
	"math/rand/v2"

	"github.com/disintegration/imaging"
)

var sepiaMatrix = [3][3]float64{
	{0.393, 0.769, 0.189},
	{0.349, 0.686, 0.168},
	{0.272, 0.534, 0.131},
}

func warm(img *image.NRGBA) *image.NRGBA { return scaleChannels(img, 1.15, 1.05, 0.85) }

func cool(img *image.NRGBA) *image.NRGBA { return scaleChannels(img, 0.85, 1.05, 1.20) }

func sepia(img *image.NRGBA) *image.NRGBA { return colorMatrix(img, sepiaMatrix) }

func blackAndWhite(img *image.NRGBA) *image.NRGBA { return imaging.Grayscale(img) }

func vintage(img *image.NRGBA) *image.NRGBA {
	img = sepia(img)
	img = adjustContrast(img, 0.85)
	img = adjustBrightness(img, 0.9)
	return scaleChannels(img, 1.05, 1, 1)
}

func dramatic(img *image.NRGBA) *image.NRGBA {
	img = adjustContrast(img, 1.8)
	img = adjustBrightness(img, 0.85)
	return adjustColor(img, 0.7)
}

func vivid(img *image.NRGBA) *image.NRGBA {
	img = adjustColor(img, 1.9)
	return adjustContrast(img, 1.2)
}

func fade(img *image.NRGBA) *image.NRGBA {
	img = adjustContrast(img, 0.7)
	img = adjustBrightness(img, 1.15)
	return adjustColor(img, 0.75)
}

func bright(img *image.NRGBA) *image.NRGBA { return adjustBrightness(img, 1.4) }

func dark(img *image.NRGBA) *image.NRGBA { return adjustBrightness(img, 0.65) }

func hdr(img *image.NRGBA) *image.NRGBA {
	img = adjustContrast(img, 1.5)
	img = adjustSharpness(img, 2.0)
	return adjustColor(img, 1.3)
}

func soft(img *image.NRGBA) *image.NRGBA { return gaussianBlur(img, 1.2) }

func sharp(img *image.NRGBA) *image.NRGBA { return adjustSharpness(img, 3.0) }

// retro is warm, slightly desaturated, and grainy. The grain makes it the
// only non-deterministic action.
func retro(img *image.NRGBA, rng *rand.Rand) *image.NRGBA {
	img = warm(img)
	img = adjustColor(img, 0.8)
	img = adjustContrast(img, 1.1)
	return addNoise(img, rng, -10, 10)
}

func moody(img *image.NRGBA) *image.NRGBA {
	img = cool(img)
	img = adjustBrightness(img, 0.8)
	img = adjustContrast(img, 1.3)
	return adjustColor(img, 0.85)
}

func film(img *image.NRGBA) *image.NRGBA {
	img = adjustContrast(img, 1.2)
	img = adjustColor(img, 0.9)
	red := newLUT(func(v float64) float64 { return v*1.05 + 5 })
	return applyLUT(img, red, identityLUT(), scaleLUT(0.95))
}

func ocean(img *image.NRGBA) *image.NRGBA { return scaleChannels(img, 0.8, 1.1, 1.3) }

func nature(img *image.NRGBA) *image.NRGBA {
	img = scaleChannels(img, 0.9, 1.2, 0.9)
	return adjustColor(img, 1.3)
}

func golden(img *image.NRGBA) *image.NRGBA {
	img = scaleChannels(img, 1.2, 1.05, 0.7)
	return adjustBrightness(img, 1.1)
}

func pastel(img *image.NRGBA) *image.NRGBA {
	img = adjustColor(img, 0.6)
	img = adjustBrightness(img, 1.2)
	return affine(img, 0.85, 38)
}

func neon(img *image.NRGBA) *image.NRGBA {
	img = adjustColor(img, 3.0)
	img = adjustContrast(img, 1.5)
	return adjustBrightness(img, 0.9)
}

func popArt(img *image.NRGBA) *image.NRGBA {
	img = adjustColor(img, 4.0)
	return adjustContrast(img, 2.0)
}

func portrait(img *image.NRGBA) *image.NRGBA {
	img = adjustColor(img, 1.1)
	img = adjustBrightness(img, 1.05)
	img = scaleChannels(img, 1.05, 1, 1)
	return smooth(img)
}

func urban(img *image.NRGBA) *image.NRGBA {
	img = adjustContrast(img, 1.4)
	img = adjustColor(img, 0.85)
	return adjustSharpness(img, 1.5)
}

// bloom adds 30% of a heavily blurred copy on top of the original.
func bloom(img *image.NRGBA) *image.NRGBA {
	glow := gaussianBlur(img, 8)
	img = mix(img, glow, func(base, blur uint8) uint8 {
		return clamp8(float64(base) + float64(blur)*0.3)
	})
	return adjustColor(img, 1.2)
}
