package imageproc

import (
	"image"

	"github.com/disintegration/imaging"
)

func cropOp(ratioW, ratioH int) operation {
	return pure(func(img *image.NRGBA) *image.NRGBA {
		return cropToRatio(img, ratioW, ratioH)
	})
}

// cropToRatio center-crops img to ratioW:ratioH without scaling. An image
// wider than the target loses columns on both sides; otherwise it loses rows
// at top and bottom. Neither side drops below one pixel.
func cropToRatio(img *image.NRGBA, ratioW, ratioH int) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	if w*ratioH > h*ratioW {
		newW := max(1, h*ratioW/ratioH)
		left := (w - newW) / 2
		return imaging.Crop(img, image.Rect(left, 0, left+newW, h))
	}

	newH := max(1, w*ratioH/ratioW)
	top := (h - newH) / 2
	return imaging.Crop(img, image.Rect(0, top, w, top+newH))
}

// rotateClockwise turns the frame a quarter turn clockwise; width and
// height swap.
func rotateClockwise(img *image.NRGBA) *image.NRGBA { return imaging.Rotate270(img) }

func flipHorizontal(img *image.NRGBA) *image.NRGBA { return imaging.FlipH(img) }

func flipVertical(img *image.NRGBA) *image.NRGBA { return imaging.FlipV(img) }
