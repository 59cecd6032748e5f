package imageproc

import (
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/disintegration/imaging"
)

// Enhancement factors follow one convention: 1.0 is identity, below 1.0
// reduces, above 1.0 amplifies. Every result is clamped to [0,255] and then
// truncated.

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

type lut [256]uint8

func newLUT(fn func(v float64) float64) *lut {
	var t lut
	for i := range t {
		t[i] = clamp8(fn(float64(i)))
	}
	return &t
}

func identityLUT() *lut {
	return newLUT(func(v float64) float64 { return v })
}

func applyLUT(img *image.NRGBA, r, g, b *lut) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: r[c.R], G: g[c.G], B: b[c.B], A: c.A}
	})
}

func scaleLUT(f float64) *lut {
	return newLUT(func(v float64) float64 { return v * f })
}

// scaleChannels multiplies each channel by its own factor.
func scaleChannels(img *image.NRGBA, fr, fg, fb float64) *image.NRGBA {
	return applyLUT(img, scaleLUT(fr), scaleLUT(fg), scaleLUT(fb))
}

// affine maps every channel through v*a + b.
func affine(img *image.NRGBA, a, b float64) *image.NRGBA {
	t := newLUT(func(v float64) float64 { return v*a + b })
	return applyLUT(img, t, t, t)
}

// adjustBrightness blends toward black.
func adjustBrightness(img *image.NRGBA, f float64) *image.NRGBA {
	t := scaleLUT(f)
	return applyLUT(img, t, t, t)
}

// adjustContrast scales every channel around mid-gray 128.
func adjustContrast(img *image.NRGBA, f float64) *image.NRGBA {
	t := newLUT(func(v float64) float64 { return 128 + (v-128)*f })
	return applyLUT(img, t, t, t)
}

// luma is the ITU-R 601-2 grayscale value, rounded to the nearest level like
// an 8-bit L channel.
func luma(c color.NRGBA) float64 {
	return float64((299*int(c.R) + 587*int(c.G) + 114*int(c.B) + 500) / 1000)
}

// adjustColor blends each pixel toward its own grayscale value.
func adjustColor(img *image.NRGBA, f float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		l := luma(c)
		return color.NRGBA{
			R: clamp8(l + (float64(c.R)-l)*f),
			G: clamp8(l + (float64(c.G)-l)*f),
			B: clamp8(l + (float64(c.B)-l)*f),
			A: c.A,
		}
	})
}

var (
	smoothKernel = [9]float64{
		1, 1, 1,
		1, 5, 1,
		1, 1, 1,
	}
	smoothMoreKernel = [25]float64{
		1, 1, 1, 1, 1,
		1, 5, 5, 5, 1,
		1, 5, 44, 5, 1,
		1, 5, 5, 5, 1,
		1, 1, 1, 1, 1,
	}
)

func smooth(img *image.NRGBA) *image.NRGBA {
	return imaging.Convolve3x3(img, smoothKernel, &imaging.ConvolveOptions{Normalize: true})
}

func smoothMore(img *image.NRGBA) *image.NRGBA {
	return imaging.Convolve5x5(img, smoothMoreKernel, &imaging.ConvolveOptions{Normalize: true})
}

// adjustSharpness extrapolates away from a smoothed copy: f=0 gives the
// smoothed image, f=1 the original, f>1 an unsharp-masked result.
func adjustSharpness(img *image.NRGBA, f float64) *image.NRGBA {
	return mix(smooth(img), img, func(base, top uint8) uint8 {
		b := float64(base)
		return clamp8(b + (float64(top)-b)*f)
	})
}

func gaussianBlur(img *image.NRGBA, radius float64) *image.NRGBA {
	return imaging.Blur(img, radius)
}

// mix combines two same-sized canvases channel by channel. Alpha is taken
// from a.
func mix(a, b *image.NRGBA, fn func(a, b uint8) uint8) *image.NRGBA {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	parallelFor(h, func(y int) {
		ra := a.Pix[y*a.Stride : y*a.Stride+w*4]
		rb := b.Pix[y*b.Stride : y*b.Stride+w*4]
		rd := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for i := 0; i < len(rd); i += 4 {
			rd[i+0] = fn(ra[i+0], rb[i+0])
			rd[i+1] = fn(ra[i+1], rb[i+1])
			rd[i+2] = fn(ra[i+2], rb[i+2])
			rd[i+3] = ra[i+3]
		}
	})
	return dst
}

// colorMatrix applies a 3x3 linear mix, row i producing output channel i.
func colorMatrix(img *image.NRGBA, m [3][3]float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)
		return color.NRGBA{
			R: clamp8(m[0][0]*r + m[0][1]*g + m[0][2]*b),
			G: clamp8(m[1][0]*r + m[1][1]*g + m[1][2]*b),
			B: clamp8(m[2][0]*r + m[2][1]*g + m[2][2]*b),
			A: c.A,
		}
	})
}

// addNoise adds an independent uniform integer in [lo, hi) to every channel
// of every pixel. Pixels are visited in order so a seeded rng reproduces.
func addNoise(img *image.NRGBA, rng *rand.Rand, lo, hi int) *image.NRGBA {
	dst := imaging.Clone(img)
	span := hi - lo
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	for y := 0; y < h; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			for ch := 0; ch < 3; ch++ {
				n := rng.IntN(span) + lo
				row[i+ch] = clamp8(float64(int(row[i+ch]) + n))
			}
		}
	}
	return dst
}

// autoContrast stretches each channel so that, after discarding cutoff
// percent of the darkest and of the brightest samples, the remaining range
// spans 0..255.
func autoContrast(img *image.NRGBA, cutoff float64) *image.NRGBA {
	var hist [3][256]int
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			hist[0][row[i+0]]++
			hist[1][row[i+1]]++
			hist[2][row[i+2]]++
		}
	}
	return applyLUT(img,
		stretchLUT(hist[0], cutoff),
		stretchLUT(hist[1], cutoff),
		stretchLUT(hist[2], cutoff))
}

func stretchLUT(hist [256]int, cutoff float64) *lut {
	total := 0
	for _, n := range hist {
		total += n
	}
	cut := int(float64(total) * cutoff / 100)

	remaining := cut
	for i := 0; i < 256 && remaining > 0; i++ {
		if remaining > hist[i] {
			remaining -= hist[i]
			hist[i] = 0
		} else {
			hist[i] -= remaining
			remaining = 0
		}
	}
	remaining = cut
	for i := 255; i >= 0 && remaining > 0; i-- {
		if remaining > hist[i] {
			remaining -= hist[i]
			hist[i] = 0
		} else {
			hist[i] -= remaining
			remaining = 0
		}
	}

	lo, hi := 0, 255
	for lo < 256 && hist[lo] == 0 {
		lo++
	}
	for hi >= 0 && hist[hi] == 0 {
		hi--
	}
	if hi <= lo {
		return identityLUT()
	}

	scale := 255 / float64(hi-lo)
	offset := -float64(lo) * scale
	return newLUT(func(v float64) float64 { return v*scale + offset })
}
