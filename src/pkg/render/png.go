package render

import (
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce sync.Once
	fontTTF  *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		fontTTF, fontErr = truetype.Parse(goregular.TTF)
	})
	return fontTTF, fontErr
}

func face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// WritePNG rasterizes the whole map and encodes it as PNG.
func WritePNG(w io.Writer, s Scene, title string) error {
	ttf, err := loadFont()
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}

	width, height, dx, dy := exportFrame(s, title)
	dc := gg.NewContext(width, height)
	dc.SetHexColor("#f8fafc")
	dc.Clear()

	if title != "" {
		dc.SetFontFace(face(ttf, 20))
		dc.SetHexColor("#0f172a")
		dc.DrawStringAnchored(title, exportPadding, exportPadding, 0, 0.5)
	}

	dc.Translate(dx, dy)

	dc.SetHexColor("#94a3b8")
	dc.SetLineWidth(2)
	for _, c := range s.Connectors {
		if !c.Valid() {
			continue
		}
		dc.MoveTo(c.FromX, c.FromY)
		dc.QuadraticTo(c.CtrlX, c.CtrlY, c.ToX, c.ToY)
		dc.Stroke()
	}

	faces := map[float64]font.Face{}
	for _, v := range s.Nodes {
		size := v.Style.FontSize * v.Scale
		f, ok := faces[size]
		if !ok {
			f = face(ttf, size)
			faces[size] = f
		}
		drawNodePNG(dc, v, f)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func drawNodePNG(dc *gg.Context, v NodeVisual, f font.Face) {
	dc.SetFontFace(f)
	textW, _ := dc.MeasureString(v.Node.Title)

	baseW, baseH := v.Size()
	baseW = max(v.Style.MinWidth, textW/v.Scale+2*v.Style.PaddingX)
	w, h := baseW*v.Scale, baseH*v.Scale
	x := v.Node.X - (w-baseW)/2
	y := v.Node.Y - (h-baseH)/2

	dc.DrawRoundedRectangle(x, y, w, h, v.Style.BorderRadius*v.Scale)
	dc.SetHexColor(v.Node.Color)
	dc.FillPreserve()
	if v.Selected || v.Dragging {
		dc.SetHexColor("#0f172a")
		dc.SetLineWidth(2)
	} else {
		dc.SetColor(color.RGBA{255, 255, 255, 100})
		dc.SetLineWidth(1)
	}
	dc.Stroke()

	dc.SetColor(color.White)
	dc.DrawStringAnchored(v.Node.Title, x+w/2, y+h/2, 0.5, 0.5)
}
