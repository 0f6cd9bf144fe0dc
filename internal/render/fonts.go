package render

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goregular"
)

// loadFontSource loads a TTF from path, falling back to the embedded face
// when the path is empty or unreadable. A missing font file must never fail
// a render, so the failure is logged and the built-in face takes over.
func loadFontSource(path string, fallback []byte) (*text.FontSource, error) {
	if path != "" {
		src, err := text.NewFontSourceFromFile(path)
		if err == nil {
			return src, nil
		}
		slog.Warn("render: font unavailable, using built-in face", "path", path, "err", err)
	}

	src, err := text.NewFontSource(fallback)
	if err != nil {
		return nil, fmt.Errorf("render: parse built-in font: %w", err)
	}
	return src, nil
}

// builtinBodyFont is the embedded fallback for the card body. The shipped
// body font is a bold italic, so the fallback matches that weight.
func builtinBodyFont() []byte { return gobolditalic.TTF }

// builtinCaptionFont is the embedded fallback for the name and date captions.
func builtinCaptionFont() []byte { return goregular.TTF }
