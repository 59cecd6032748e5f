// Package aitext produces text about a photo (analysis, captions, edit
// suggestions) through a vision-capable chat completion API.
package aitext

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind selects the prompt sent with the photo.
type Kind string

const (
	KindAnalysis    Kind = "analysis"
	KindCaptions    Kind = "captions"
	KindSuggestions Kind = "suggestions"
)

// ErrUnknownKind is returned for a Kind without a prompt.
var ErrUnknownKind = errors.New("unknown description kind")

// Describer turns a photo into text of the requested kind.
type Describer interface {
	Describe(ctx context.Context, kind Kind, image []byte) (string, error)
}

var prompts = map[Kind]string{
	KindAnalysis: "You are a professional photo editor. Analyze this image and provide:\n\n" +
		"1. 🎨 **Image Description**: What is in this image?\n" +
		"2. 📊 **Quality Rating**: Rate exposure, color, sharpness (1-10)\n" +
		"3. ✨ **Top 5 Editing Tips**: Specific improvements\n" +
		"4. 🎭 **Best Filter**: Which filter would suit this image?\n" +
		"5. 📐 **Best Crop**: What crop ratio would look best?\n" +
		"6. 💡 **Pro Tip**: One expert tip for this image\n\n" +
		"Be concise and use emojis. Reply in simple English.",
	KindCaptions: "Generate 5 creative social media captions for this image:\n\n" +
		"1. 📸 Instagram caption (with hashtags)\n" +
		"2. 🎵 TikTok caption (short, trendy)\n" +
		"3. 👥 Facebook caption (friendly)\n" +
		"4. 🐦 Twitter/X caption (witty, under 280 chars)\n" +
		"5. 💼 LinkedIn caption (professional)\n\n" +
		"Use emojis and make them engaging!",
	KindSuggestions: "Look at this photo and suggest the 3 best quick edits from this list:\n" +
		"Filters: warm, cool, vintage, sepia, bw, dramatic, vivid, fade, bright, dark, hdr, retro, moody\n" +
		"Crops: square, wide (16:9), story (9:16)\n" +
		"Enhancements: sharpen, bright, contrast, saturation\n\n" +
		"Format: Just list the 3 best options with one emoji each and a short reason. Be very brief.",
}

// Kinds lists the supported kinds in display order.
func Kinds() []Kind {
	return []Kind{KindAnalysis, KindCaptions, KindSuggestions}
}

// ParseKind validates s as a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := prompts[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Prompt returns the instruction text for k.
func Prompt(k Kind) (string, error) {
	p, ok := prompts[k]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
	}
	return p, nil
}
