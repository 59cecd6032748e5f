package imageproc

import (
	"image"
	"math/rand/v2"
)

// Family groups catalog actions the way the menus present them.
type Family string

const (
	FamilyFilter  Family = "filter"
	FamilyCrop    Family = "crop"
	FamilyEnhance Family = "enhance"
)

// operation transforms a canvas. rng is only consumed by noise filters.
type operation func(img *image.NRGBA, rng *rand.Rand) *image.NRGBA

// Action describes one entry of the closed action catalog.
type Action struct {
	Tag    string `json:"tag"`
	Label  string `json:"label"`
	Family Family `json:"family"`

	op operation
}

// Deterministic reports whether two runs on the same input give the same
// output. Only the grain-injecting filters are not.
func (a Action) Deterministic() bool {
	return a.Tag != "retro"
}

var catalog = []Action{
	{Tag: "warm", Label: "Warm", Family: FamilyFilter, op: pure(warm)},
	{Tag: "cool", Label: "Cool", Family: FamilyFilter, op: pure(cool)},
	{Tag: "vintage", Label: "Vintage", Family: FamilyFilter, op: pure(vintage)},
	{Tag: "sepia", Label: "Sepia", Family: FamilyFilter, op: pure(sepia)},
	{Tag: "bw", Label: "Black & White", Family: FamilyFilter, op: pure(blackAndWhite)},
	{Tag: "dramatic", Label: "Dramatic", Family: FamilyFilter, op: pure(dramatic)},
	{Tag: "vivid", Label: "Vivid", Family: FamilyFilter, op: pure(vivid)},
	{Tag: "fade", Label: "Fade", Family: FamilyFilter, op: pure(fade)},
	{Tag: "bright", Label: "Bright", Family: FamilyFilter, op: pure(bright)},
	{Tag: "dark", Label: "Dark", Family: FamilyFilter, op: pure(dark)},
	{Tag: "hdr", Label: "HDR", Family: FamilyFilter, op: pure(hdr)},
	{Tag: "soft", Label: "Soft", Family: FamilyFilter, op: pure(soft)},
	{Tag: "sharp", Label: "Sharp", Family: FamilyFilter, op: pure(sharp)},
	{Tag: "retro", Label: "Retro", Family: FamilyFilter, op: retro},
	{Tag: "moody", Label: "Moody", Family: FamilyFilter, op: pure(moody)},
	{Tag: "film", Label: "Film", Family: FamilyFilter, op: pure(film)},
	{Tag: "ocean", Label: "Ocean", Family: FamilyFilter, op: pure(ocean)},
	{Tag: "nature", Label: "Nature", Family: FamilyFilter, op: pure(nature)},
	{Tag: "golden", Label: "Golden Hour", Family: FamilyFilter, op: pure(golden)},
	{Tag: "pastel", Label: "Pastel", Family: FamilyFilter, op: pure(pastel)},
	{Tag: "neon", Label: "Neon", Family: FamilyFilter, op: pure(neon)},
	{Tag: "popart", Label: "Pop Art", Family: FamilyFilter, op: pure(popArt)},
	{Tag: "portrait", Label: "Portrait", Family: FamilyFilter, op: pure(portrait)},
	{Tag: "urban", Label: "Urban", Family: FamilyFilter, op: pure(urban)},
	{Tag: "bloom", Label: "Bloom", Family: FamilyFilter, op: pure(bloom)},

	{Tag: "crop_square", Label: "Square (1:1)", Family: FamilyCrop, op: cropOp(1, 1)},
	{Tag: "crop_wide", Label: "Widescreen (16:9)", Family: FamilyCrop, op: cropOp(16, 9)},
	{Tag: "crop_story", Label: "Story (9:16)", Family: FamilyCrop, op: cropOp(9, 16)},
	{Tag: "crop_classic", Label: "Classic (4:3)", Family: FamilyCrop, op: cropOp(4, 3)},
	{Tag: "crop_photo", Label: "Photo (3:2)", Family: FamilyCrop, op: cropOp(3, 2)},

	{Tag: "enhance_auto", Label: "Auto Enhance", Family: FamilyEnhance, op: pure(enhanceAuto)},
	{Tag: "enhance_bright", Label: "Increase Brightness", Family: FamilyEnhance, op: pure(enhanceBright)},
	{Tag: "enhance_dark", Label: "Decrease Brightness", Family: FamilyEnhance, op: pure(enhanceDark)},
	{Tag: "enhance_contrast", Label: "Increase Contrast", Family: FamilyEnhance, op: pure(enhanceContrast)},
	{Tag: "enhance_saturation", Label: "Boost Saturation", Family: FamilyEnhance, op: pure(enhanceSaturation)},
	{Tag: "enhance_sharpen", Label: "Sharpen", Family: FamilyEnhance, op: pure(enhanceSharpen)},
	{Tag: "enhance_smooth", Label: "Smooth/Denoise", Family: FamilyEnhance, op: pure(enhanceSmooth)},
	{Tag: "enhance_rotate", Label: "Rotate 90°", Family: FamilyEnhance, op: pure(rotateClockwise)},
	{Tag: "enhance_flip_h", Label: "Flip Horizontal", Family: FamilyEnhance, op: pure(flipHorizontal)},
	{Tag: "enhance_flip_v", Label: "Flip Vertical", Family: FamilyEnhance, op: pure(flipVertical)},
}

var lookup = func() map[string]Action {
	m := make(map[string]Action, len(catalog))
	for _, a := range catalog {
		m[a.Tag] = a
	}
	return m
}()

func pure(fn func(*image.NRGBA) *image.NRGBA) operation {
	return func(img *image.NRGBA, _ *rand.Rand) *image.NRGBA {
		return fn(img)
	}
}

// Catalog returns every action in menu order.
func Catalog() []Action {
	out := make([]Action, len(catalog))
	copy(out, catalog)
	return out
}

// Actions returns the actions of one family in menu order.
func Actions(family Family) []Action {
	var out []Action
	for _, a := range catalog {
		if a.Family == family {
			out = append(out, a)
		}
	}
	return out
}

// Lookup returns the catalog entry for tag.
func Lookup(tag string) (Action, bool) {
	a, ok := lookup[tag]
	return a, ok
}
