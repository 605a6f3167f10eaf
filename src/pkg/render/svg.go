package render

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
)

// Export margin around the map, in pixels.
const exportPadding = 40

const (
	backgroundFill = "fill:#f8fafc"
	connectorStyle = "fill:none;stroke:#94a3b8;stroke-width:2"
	titleStyle     = "fill:#0f172a;font-size:20px;font-family:system-ui,sans-serif;font-weight:600"
)

// errWriter remembers the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

// exportFrame is the canvas size and the offset that moves map coordinates
// into it, leaving room for the title.
func exportFrame(s Scene, title string) (width, height int, dx, dy float64) {
	b := SceneBounds(s)
	header := 0.0
	if title != "" {
		header = 40
	}
	width = int(math.Ceil(b.Width())) + 2*exportPadding
	height = int(math.Ceil(b.Height()+header)) + 2*exportPadding
	dx = exportPadding - b.MinX
	dy = exportPadding + header - b.MinY
	return width, height, dx, dy
}

// WriteSVG renders the whole map as a standalone SVG document.
func WriteSVG(w io.Writer, s Scene, title string) error {
	ew := &errWriter{w: w}
	width, height, dx, dy := exportFrame(s, title)

	canvas := svg.New(ew)
	canvas.Start(width, height)
	if title != "" {
		canvas.Title(title)
	}
	canvas.Rect(0, 0, width, height, backgroundFill)
	if title != "" {
		canvas.Text(exportPadding, exportPadding, title, titleStyle)
	}

	canvas.Gtransform(fmt.Sprintf("translate(%s,%s)", num(dx), num(dy)))
	canvas.Gid("connections")
	for _, c := range s.Connectors {
		if !c.Valid() {
			continue
		}
		canvas.Path(c.Path, connectorStyle)
	}
	canvas.Gend()

	canvas.Gid("nodes")
	for _, v := range s.Nodes {
		drawNodeSVG(canvas, v)
	}
	canvas.Gend()
	canvas.Gend()

	canvas.End()
	if ew.err != nil {
		return fmt.Errorf("failed to write svg: %w", ew.err)
	}
	return nil
}

func drawNodeSVG(canvas *svg.SVG, v NodeVisual) {
	w, h := v.Size()
	w, h = w*v.Scale, h*v.Scale
	baseW, baseH := v.Size()
	// scale around the box center
	x := v.Node.X - (w-baseW)/2
	y := v.Node.Y - (h-baseH)/2
	r := int(math.Round(v.Style.BorderRadius * v.Scale))

	stroke := "stroke:#ffffff;stroke-opacity:0.4;stroke-width:1"
	if v.Selected || v.Dragging {
		stroke = "stroke:#0f172a;stroke-width:2"
	}

	canvas.Roundrect(int(math.Round(x)), int(math.Round(y)), int(math.Round(w)), int(math.Round(h)), r, r,
		fmt.Sprintf("fill:%s;%s", v.Node.Color, stroke))
	canvas.Text(int(math.Round(x+w/2)), int(math.Round(y+h/2)), v.Node.Title,
		fmt.Sprintf("fill:#ffffff;font-size:%spx;font-family:system-ui,sans-serif;text-anchor:middle;dominant-baseline:middle",
			num(v.Style.FontSize*v.Scale)))
}
