package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/gogpu/gg"
	gtext "github.com/gogpu/gg/text"

	"quotecard/internal/quote"

	// Speaker images arrive as raw bytes from the transport; stickers are
	// typically WebP, attachments PNG or JPEG.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Canvas geometry. The body text occupies the right half; the left half is
// reserved for the speaker image.
const (
	canvasWidth  = 1100
	canvasHeight = 512

	// Body text bounding box.
	textLeft   = 512 + 40
	textTop    = 60
	textRight  = canvasWidth - 40
	textBottom = canvasHeight - 60

	// Caption line (speaker name bottom-left of the text half, date
	// bottom-right).
	captionSize    = 40
	captionNameX   = 512 + 20
	captionMarginY = 10
	dateMarginX    = 40

	// Decorative layers.
	scrollOpacity  = 1.0 / 3.0
	scrollMarginX  = 10
	stickerZoom    = 1.7
	stickerOpacity = 0.25
)

// Gradient endpoints: teal center fading to a darker teal at the corners.
var (
	gradientInner = gg.RGBA2(44.0/255, 211.0/255, 189.0/255, 1)
	gradientOuter = gg.RGBA2(36.0/255, 129.0/255, 117.0/255, 1)
)

// CompositorConfig points the compositor at its font and asset files. All
// fields are optional: missing fonts fall back to embedded faces, missing
// assets skip their layer.
type CompositorConfig struct {
	// AssetsDir holds scroll.png and quote-sign.png.
	AssetsDir string

	// BodyFont and CaptionFont are TTF paths.
	BodyFont    string
	CaptionFont string
}

// Compositor renders a completed quote into a PNG card. It is pure given its
// fixed font/asset inputs: the same quote, display text, and speaker image
// always produce the same bytes. Safe for concurrent use — all mutable work
// happens on per-render contexts.
type Compositor struct {
	bodyFont    *gtext.FontSource
	captionFont *gtext.FontSource

	// background is the radial gradient, generated once. The per-pixel
	// gradient fill is the most expensive stage and its inputs never
	// change, so it is not redone per card.
	background *gg.ImageBuf

	// scroll and quoteSign are nil when the asset file is unavailable.
	scroll    *gg.ImageBuf
	quoteSign *gg.ImageBuf
}

// NewCompositor loads fonts and decorative assets and pre-renders the
// gradient background. The only fatal condition is an unparseable built-in
// font; everything else degrades.
func NewCompositor(cfg CompositorConfig) (*Compositor, error) {
	bodyFont, err := loadFontSource(cfg.BodyFont, builtinBodyFont())
	if err != nil {
		return nil, err
	}
	captionFont, err := loadFontSource(cfg.CaptionFont, builtinCaptionFont())
	if err != nil {
		return nil, err
	}

	c := &Compositor{
		bodyFont:    bodyFont,
		captionFont: captionFont,
		background:  renderGradient(),
		scroll:      loadAsset(cfg.AssetsDir, "scroll.png"),
		quoteSign:   loadAsset(cfg.AssetsDir, "quote-sign.png"),
	}
	return c, nil
}

// renderGradient fills the canvas with a radial gradient: every pixel is the
// linear RGBA interpolation between the inner and outer color by its
// center-to-corner-normalized distance.
func renderGradient() *gg.ImageBuf {
	cx, cy := float64(canvasWidth)/2, float64(canvasHeight)/2
	maxRadius := math.Hypot(cx, cy)

	dc := gg.NewContext(canvasWidth, canvasHeight)
	defer dc.Close()

	brush := gg.NewRadialGradientBrush(cx, cy, 0, maxRadius).
		AddColorStop(0, gradientInner).
		AddColorStop(1, gradientOuter)
	dc.SetFillBrush(brush)
	dc.DrawRectangle(0, 0, canvasWidth, canvasHeight)
	if err := dc.Fill(); err != nil {
		// Fall back to a flat background rather than failing every render.
		slog.Warn("render: gradient fill failed, using flat background", "err", err)
		dc.ClearWithColor(gradientOuter)
	}
	return gg.ImageBufFromImage(dc.Image())
}

// loadAsset loads a decorative PNG, returning nil (layer skipped) when the
// file is unavailable.
func loadAsset(dir, name string) *gg.ImageBuf {
	img, err := gg.LoadImage(filepath.Join(dir, name))
	if err != nil {
		slog.Warn("render: asset unavailable, layer skipped", "asset", name, "err", err)
		return nil
	}
	return img
}

// Render composites the card for q: gradient background, scroll layer, the
// fitted body text, name and date captions, quote-mark glyph, and the
// speaker image layers. body is the display text to fit into the card
// (typically the dated form); speakerImage is the raw image bytes of the
// first speaker that has one, or nil.
func (c *Compositor) Render(q *quote.Quote, body string, speakerImage []byte) ([]byte, error) {
	if len(q.Phrases) == 0 {
		return nil, fmt.Errorf("render: quote has no phrases")
	}

	dc := gg.NewContext(canvasWidth, canvasHeight)
	defer dc.Close()

	dc.DrawImage(c.background, 0, 0)

	if c.scroll != nil {
		dc.DrawImageEx(c.scroll, gg.DrawImageOptions{
			X:       float64(canvasWidth - c.scroll.Width() - scrollMarginX),
			Y:       0,
			Opacity: scrollOpacity,
		})
	}

	firstLineX, firstLineY := c.drawBody(dc, body)
	c.drawCaptions(dc, q)

	if c.quoteSign != nil {
		dc.DrawImage(c.quoteSign,
			firstLineX-float64(c.quoteSign.Width()),
			firstLineY-float64(c.quoteSign.Height())/3,
		)
	}

	if len(speakerImage) > 0 {
		if err := drawSpeakerImage(dc, speakerImage); err != nil {
			// A broken speaker image skips its layers, same as a missing one.
			slog.Warn("render: speaker image skipped", "err", err)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawBody fits and draws the body text, vertically centered in the text
// box with every line horizontally centered. Returns the top-left corner of
// the first line, which anchors the quote-mark glyph.
func (c *Compositor) drawBody(dc *gg.Context, body string) (x, y float64) {
	const boxWidth = float64(textRight - textLeft)
	const boxHeight = float64(textBottom - textTop)

	fit := fitText(c.bodyFont, body, boxWidth, boxHeight)
	lineAdvance := fit.lineHeight * fitLineSpacing
	total := lineAdvance * float64(len(fit.lines))
	top := textTop + (boxHeight-total)/2

	ascent := fit.face.Metrics().Ascent
	dc.SetFont(fit.face)
	dc.SetRGBA(1, 1, 1, 1)

	firstX := float64(textLeft)
	lineTop := top
	for i, line := range fit.lines {
		lineWidth := fit.face.Advance(line)
		lineX := textLeft + (boxWidth-lineWidth)/2
		if i == 0 {
			firstX = lineX
		}
		if line != "" {
			dc.DrawString(line, lineX, lineTop+ascent)
		}
		lineTop += lineAdvance
	}
	return firstX, top
}

// drawCaptions draws the speaker name left-anchored and the formatted date
// right-anchored, both bottom-aligned. The name shown is the first phrase's
// speaker.
func (c *Compositor) drawCaptions(dc *gg.Context, q *quote.Quote) {
	face := c.captionFont.Face(captionSize)
	baseline := float64(canvasHeight) - captionMarginY - face.Metrics().Descent

	dc.SetFont(face)
	dc.SetRGBA(1, 1, 1, 1)

	if sp := q.Phrases[0].Speaker; sp != nil {
		dc.DrawString(sp.Name, captionNameX, baseline)
	}

	date := quote.FormatDate(q.Date)
	dc.DrawString(date, float64(canvasWidth)-face.Advance(date)-dateMarginX, baseline)
}

// drawSpeakerImage decodes the speaker picture, crops its transparent
// border, and draws the two layers: a zoomed, desaturated, semi-transparent
// watermark anchored to the top-right of the image half, then the sharp
// copy bottom-left at natural size on top of everything.
func drawSpeakerImage(dc *gg.Context, raw []byte) error {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode speaker image: %w", err)
	}

	cropped := cropTransparency(src)
	w := cropped.Bounds().Dx()
	h := cropped.Bounds().Dy()

	zoomedW := float64(int(float64(w) * stickerZoom))
	zoomedH := float64(int(float64(h) * stickerZoom))
	watermark := gg.ImageBufFromImage(desaturate(cropped))
	dc.DrawImageEx(watermark, gg.DrawImageOptions{
		X:             512 - zoomedW,
		Y:             0,
		DstWidth:      zoomedW,
		DstHeight:     zoomedH,
		Interpolation: gg.InterpBicubic,
		Opacity:       stickerOpacity,
	})

	sharp := gg.ImageBufFromImage(cropped)
	dc.DrawImage(sharp, 0, float64(canvasHeight-h))
	return nil
}

// cropTransparency crops src to the bounding box of its non-zero alpha. A
// fully transparent image is returned unchanged.
func cropTransparency(src image.Image) *image.NRGBA {
	b := src.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := src.At(x, y).RGBA(); a > 0 {
				minX = min(minX, x)
				minY = min(minY, y)
				maxX = max(maxX, x)
				maxY = max(maxY, y)
			}
		}
	}

	box := b
	if maxX >= minX && maxY >= minY {
		box = image.Rect(minX, minY, maxX+1, maxY+1)
	}

	out := image.NewNRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	for y := 0; y < box.Dy(); y++ {
		for x := 0; x < box.Dx(); x++ {
			out.Set(x, y, src.At(box.Min.X+x, box.Min.Y+y))
		}
	}
	return out
}

// desaturate converts src to grayscale, keeping the alpha channel.
func desaturate(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := src.NRGBAAt(x, y)
			gray := uint8((299*int(px.R) + 587*int(px.G) + 114*int(px.B)) / 1000)
			out.SetNRGBA(x, y, color.NRGBA{R: gray, G: gray, B: gray, A: px.A})
		}
	}
	return out
}
