package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/png"
	"log/slog"
	"math/rand/v2"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultQuality is the JPEG quality every result is encoded with.
const DefaultQuality = 95

var (
	// ErrDecode is returned when the input bytes are not a decodable raster.
	ErrDecode = errors.New("image decode failed")
	// ErrUnknownAction is returned in Strict mode for a tag outside the catalog.
	ErrUnknownAction = errors.New("unknown action")
)

// UnknownActionPolicy selects what Apply does with a tag outside the catalog.
type UnknownActionPolicy int

const (
	// PassThrough re-encodes the image unchanged.
	PassThrough UnknownActionPolicy = iota
	// Strict fails with ErrUnknownAction.
	Strict
)

// ParseUnknownActionPolicy maps "strict" and "passthrough" to a policy.
func ParseUnknownActionPolicy(s string) (UnknownActionPolicy, error) {
	switch s {
	case "", "passthrough", "pass-through":
		return PassThrough, nil
	case "strict":
		return Strict, nil
	default:
		return PassThrough, fmt.Errorf("unknown action policy %q", s)
	}
}

// Processor applies catalog actions to encoded images. It holds no mutable
// state and is safe for concurrent use.
type Processor struct {
	policy    UnknownActionPolicy
	quality   int
	noiseSeed *uint64
}

// Option customizes a Processor.
type Option func(*Processor)

// WithUnknownActionPolicy sets the behaviour for tags outside the catalog.
func WithUnknownActionPolicy(policy UnknownActionPolicy) Option {
	return func(p *Processor) {
		p.policy = policy
	}
}

// WithQuality overrides the JPEG output quality (1-100).
func WithQuality(quality int) Option {
	return func(p *Processor) {
		if quality >= 1 && quality <= 100 {
			p.quality = quality
		}
	}
}

// WithNoiseSeed makes the grain of noise-injecting filters reproducible.
func WithNoiseSeed(seed uint64) Option {
	return func(p *Processor) {
		p.noiseSeed = &seed
	}
}

// New builds a Processor. Without options it passes unknown actions through
// and encodes at DefaultQuality.
func New(opts ...Option) *Processor {
	p := &Processor{policy: PassThrough, quality: DefaultQuality}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultProcessor = New()

// Apply runs action on data with the default Processor.
func Apply(data []byte, action string) ([]byte, error) {
	return defaultProcessor.Apply(data, action)
}

// Apply decodes data, runs the catalog operation named by action and returns
// the result re-encoded as JPEG. data is never modified.
func (p *Processor) Apply(data []byte, action string) ([]byte, error) {
	entry, known := lookup[action]
	if !known && p.policy == Strict {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	img, err := decode(data)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if known {
		img = entry.op(img, p.newRand())
	} else {
		slog.Debug("imageproc: unknown action passed through", "action", action)
	}

	out, err := encode(img, p.quality)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	slog.Debug("imageproc: action applied",
		"action", action,
		"input_width", bounds.Dx(),
		"input_height", bounds.Dy(),
		"output_width", img.Bounds().Dx(),
		"output_height", img.Bounds().Dy(),
		"output_size_bytes", len(out))

	return out, nil
}

func (p *Processor) newRand() *rand.Rand {
	if p.noiseSeed != nil {
		return rand.New(rand.NewPCG(*p.noiseSeed, *p.noiseSeed))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// decode turns any registered raster format into an opaque NRGBA canvas with
// its origin at (0,0). Alpha is discarded, not composited.
func decode(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}
	return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		c.A = 0xff
		return c
	}), nil
}

func encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DetectFormat inspects the raw bytes and returns the image format:
// "jpeg", "png", "gif", "webp", "bmp", "tiff", or "" if unknown.
func DetectFormat(data []byte) string {
	// JPEG: starts with FF D8 FF
	if len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "jpeg"
	}
	// PNG: starts with 89 50 4E 47 0D 0A 1A 0A
	if len(data) >= 8 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 &&
		data[4] == 0x0D && data[5] == 0x0A && data[6] == 0x1A && data[7] == 0x0A {
		return "png"
	}
	// GIF: starts with GIF87a or GIF89a
	if len(data) >= 6 && data[0] == 'G' && data[1] == 'I' && data[2] == 'F' {
		return "gif"
	}
	// WebP: starts with RIFF....WEBP
	if len(data) >= 12 && data[0] == 'R' && data[1] == 'I' && data[2] == 'F' && data[3] == 'F' &&
		data[8] == 'W' && data[9] == 'E' && data[10] == 'B' && data[11] == 'P' {
		return "webp"
	}
	// BMP: starts with BM
	if len(data) >= 14 && data[0] == 'B' && data[1] == 'M' {
		return "bmp"
	}
	// TIFF: II*\0 or MM\0*
	if len(data) >= 4 && ((data[0] == 'I' && data[1] == 'I' && data[2] == 0x2A && data[3] == 0x00) ||
		(data[0] == 'M' && data[1] == 'M' && data[2] == 0x00 && data[3] == 0x2A)) {
		return "tiff"
	}
	return ""
}
