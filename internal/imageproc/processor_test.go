package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

// ---------------------------------------------------------------------------
// Helpers to create in-memory test images
// ---------------------------------------------------------------------------

// gradient returns a w x h canvas with smoothly varying colors.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(1, w-1)),
				G: uint8(y * 255 / max(1, h-1)),
				B: uint8((x + y) * 255 / max(1, w+h-2)),
				A: 255,
			})
		}
	}
	return img
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// decodeImage decodes output bytes and checks they are JPEG.
func decodeImage(t *testing.T, data []byte) image.Image {
	t.Helper()
	assert.Equal(t, "jpeg", DetectFormat(data))
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	b := decodeImage(t, data).Bounds()
	return b.Dx(), b.Dy()
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// ---------------------------------------------------------------------------
// Apply
// ---------------------------------------------------------------------------

func TestApply_EveryActionProducesJPEG(t *testing.T) {
	data := encodePNG(t, gradient(64, 48))
	for _, a := range Catalog() {
		t.Run(a.Tag, func(t *testing.T) {
			out, err := Apply(data, a.Tag)
			require.NoError(t, err)
			w, h := decodeSize(t, out)
			assert.Positive(t, w)
			assert.Positive(t, h)
		})
	}
}

func TestApply_DeterministicActions(t *testing.T) {
	data := encodeJPEG(t, gradient(40, 30))
	for _, a := range Catalog() {
		if !a.Deterministic() {
			continue
		}
		t.Run(a.Tag, func(t *testing.T) {
			first, err := Apply(data, a.Tag)
			require.NoError(t, err)
			second, err := Apply(data, a.Tag)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestApply_RetroWithSeedIsReproducible(t *testing.T) {
	data := encodeJPEG(t, gradient(40, 30))
	p := New(WithNoiseSeed(42))

	first, err := p.Apply(data, "retro")
	require.NoError(t, err)
	second, err := p.Apply(data, "retro")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := New(WithNoiseSeed(7)).Apply(data, "retro")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestApply_OneByOneImage(t *testing.T) {
	data := encodePNG(t, solid(1, 1, color.NRGBA{R: 10, G: 200, B: 90, A: 255}))
	for _, a := range Catalog() {
		t.Run(a.Tag, func(t *testing.T) {
			out, err := Apply(data, a.Tag)
			require.NoError(t, err)
			w, h := decodeSize(t, out)
			assert.Equal(t, 1, w)
			assert.Equal(t, 1, h)
		})
	}
}

func opaque(r, g, b uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func TestFilters_ExtremeInputsClamp(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.NRGBA{A: 255}
	tests := []struct {
		tag          string
		white, black color.NRGBA
	}{
		{"warm", opaque(255, 255, 216), opaque(0, 0, 0)},
		{"cool", opaque(216, 255, 255), opaque(0, 0, 0)},
		{"vintage", opaque(221, 211, 198), opaque(17, 17, 17)},
		{"sepia", opaque(255, 255, 238), opaque(0, 0, 0)},
		{"bw", opaque(255, 255, 255), opaque(0, 0, 0)},
		{"dramatic", opaque(216, 216, 216), opaque(0, 0, 0)},
		{"vivid", opaque(255, 255, 255), opaque(0, 0, 0)},
		{"fade", opaque(248, 248, 248), opaque(43, 43, 43)},
		{"bright", opaque(255, 255, 255), opaque(0, 0, 0)},
		{"dark", opaque(165, 165, 165), opaque(0, 0, 0)},
		{"hdr", opaque(255, 255, 255), opaque(0, 0, 0)},
		{"soft", opaque(255, 255, 255), opaque(0, 0, 0)},
		{"sharp", opaque(255, 255, 255), opaque(0, 0, 0)},
		{"moody", opaque(189, 224, 224), opaque(0, 0, 0)},
		{"film", opaque(255, 255, 242), opaque(5, 0, 0)},
		{"ocean", opaque(204, 255, 255), opaque(0, 0, 0)},
		{"nature", opaque(224, 255, 224), opaque(0, 0, 0)},
		{"golden", opaque(255, 255, 195), opaque(0, 0, 0)},
		{"pastel", opaque(254, 254, 254), opaque(38, 38, 38)},
		{"neon", opaque(229, 229, 229), opaque(0, 0, 0)},
		{"popart", opaque(255, 255, 255), opaque(0, 0, 0)},
		{"portrait", opaque(255, 255, 255), opaque(0, 0, 0)},
		{"urban", opaque(255, 255, 255), opaque(0, 0, 0)},
		{"bloom", opaque(255, 255, 255), opaque(0, 0, 0)},
	}

	covered := map[string]bool{}
	for _, tt := range tests {
		covered[tt.tag] = true
		t.Run(tt.tag, func(t *testing.T) {
			a, ok := Lookup(tt.tag)
			require.True(t, ok)

			// Uniform canvases stay uniform, so every pixel must match.
			for _, in := range []struct {
				src, want color.NRGBA
			}{{white, tt.white}, {black, tt.black}} {
				out := a.op(solid(8, 8, in.src), nil)
				for y := 0; y < 8; y++ {
					for x := 0; x < 8; x++ {
						require.Equal(t, in.want, out.NRGBAAt(x, y), "input %v at (%d,%d)", in.src, x, y)
					}
				}
			}
		})
	}

	for _, a := range Actions(FamilyFilter) {
		if a.Deterministic() {
			assert.True(t, covered[a.Tag], "filter %q has no clamping case", a.Tag)
		}
	}
}

func TestApply_CropDimensions(t *testing.T) {
	data := encodeJPEG(t, gradient(160, 120))
	tests := []struct {
		action string
		w, h   int
	}{
		{"crop_square", 120, 120},
		{"crop_wide", 160, 90},
		{"crop_story", 67, 120},
		{"crop_classic", 160, 120},
		{"crop_photo", 160, 106},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			out, err := Apply(data, tt.action)
			require.NoError(t, err)
			w, h := decodeSize(t, out)
			assert.Equal(t, tt.w, w)
			assert.Equal(t, tt.h, h)
		})
	}
}

func TestApply_RotateFourTimesRestoresFrame(t *testing.T) {
	src := gradient(40, 24)
	data := encodeJPEG(t, src)

	for i := 1; i <= 4; i++ {
		var err error
		data, err = Apply(data, "enhance_rotate")
		require.NoError(t, err)
		w, h := decodeSize(t, data)
		if i%2 == 1 {
			assert.Equal(t, 24, w)
			assert.Equal(t, 40, h)
		} else {
			assert.Equal(t, 40, w)
			assert.Equal(t, 24, h)
		}
	}

	out := decodeImage(t, data)
	total := 0
	for y := range 24 {
		for x := range 40 {
			r, _, _, _ := out.At(x, y).RGBA()
			total += absDiff(uint8(r>>8), src.NRGBAAt(x, y).R)
		}
	}
	mean := float64(total) / float64(40*24)
	assert.Less(t, mean, 8.0, "pixel content drifted beyond JPEG loss")
}

func TestApply_PNGInputIsNormalizedToJPEG(t *testing.T) {
	data := encodePNG(t, gradient(20, 10))
	out, err := Apply(data, "sepia")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", DetectFormat(out))
}

func TestApply_BMPInput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, gradient(12, 9)))
	out, err := Apply(buf.Bytes(), "enhance_flip_h")
	require.NoError(t, err)
	w, h := decodeSize(t, out)
	assert.Equal(t, 12, w)
	assert.Equal(t, 9, h)
}

func TestApply_DecodeError(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("hello world"), {0xFF, 0xD8, 0xFF, 0x00}} {
		_, err := Apply(data, "warm")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDecode)
	}
}

func TestApply_UnknownActionPassThrough(t *testing.T) {
	data := encodeJPEG(t, gradient(30, 20))
	out, err := Apply(data, "does_not_exist")
	require.NoError(t, err)
	w, h := decodeSize(t, out)
	assert.Equal(t, 30, w)
	assert.Equal(t, 20, h)
}

func TestApply_UnknownActionStrict(t *testing.T) {
	data := encodeJPEG(t, gradient(30, 20))
	p := New(WithUnknownActionPolicy(Strict))
	_, err := p.Apply(data, "does_not_exist")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = p.Apply(data, "warm")
	require.NoError(t, err)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	data := encodePNG(t, gradient(16, 16))
	orig := append([]byte(nil), data...)
	for _, tag := range []string{"warm", "enhance_rotate", "crop_square", "retro"} {
		_, err := Apply(data, tag)
		require.NoError(t, err)
	}
	assert.Equal(t, orig, data)
}

func TestApply_ConcurrentUse(t *testing.T) {
	data := encodeJPEG(t, gradient(32, 32))
	want, err := Apply(data, "hdr")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Apply(data, "hdr")
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(want, got) {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent apply: %v", err)
	}
}

func TestWithQuality_ChangesOutput(t *testing.T) {
	data := encodeJPEG(t, gradient(64, 64))
	hi, err := New(WithQuality(95)).Apply(data, "bright")
	require.NoError(t, err)
	lo, err := New(WithQuality(30)).Apply(data, "bright")
	require.NoError(t, err)
	assert.Less(t, len(lo), len(hi))
}

func TestParseUnknownActionPolicy(t *testing.T) {
	p, err := ParseUnknownActionPolicy("strict")
	require.NoError(t, err)
	assert.Equal(t, Strict, p)

	p, err = ParseUnknownActionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PassThrough, p)

	_, err = ParseUnknownActionPolicy("loud")
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func TestCatalog_Families(t *testing.T) {
	assert.Len(t, Actions(FamilyFilter), 25)
	assert.Len(t, Actions(FamilyCrop), 5)
	assert.Len(t, Actions(FamilyEnhance), 10)
	assert.Len(t, Catalog(), 40)

	seen := map[string]bool{}
	for _, a := range Catalog() {
		assert.False(t, seen[a.Tag], "duplicate tag %s", a.Tag)
		seen[a.Tag] = true
		assert.NotEmpty(t, a.Label)
	}

	_, ok := Lookup("sepia")
	assert.True(t, ok)
	_, ok = Lookup("filter_sepia")
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// DetectFormat
// ---------------------------------------------------------------------------

func TestDetectFormat(t *testing.T) {
	var bmpBuf bytes.Buffer
	require.NoError(t, bmp.Encode(&bmpBuf, gradient(4, 4)))

	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"JPEG", encodeJPEG(t, gradient(10, 10)), "jpeg"},
		{"PNG", encodePNG(t, gradient(10, 10)), "png"},
		{"GIF", []byte("GIF89a\x01\x00\x01\x00"), "gif"},
		{"WebP", []byte("RIFF\x00\x00\x00\x00WEBP"), "webp"},
		{"BMP", bmpBuf.Bytes(), "bmp"},
		{"TIFF", []byte("II*\x00\x08\x00\x00\x00"), "tiff"},
		{"Empty", []byte{}, ""},
		{"Unknown", []byte("hello world"), ""},
		{"Short", []byte{0xFF}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectFormat(tt.data))
		})
	}
}
