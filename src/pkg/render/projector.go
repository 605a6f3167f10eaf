// Package render projects the Graph Store into drawable geometry and writes
// it out as SVG, PNG or a plain-text tree.
//
// Everything here is a pure function of its input; nothing mutates the store.
package render

import (
	"math"
	"strconv"
	"strings"

	"mindnoscape/web-app/src/pkg/model"
)

// Node footprint used to anchor connectors at node centers.
const (
	NodeWidth  = 140
	NodeHeight = 50
)

// Visual scale factors.
const (
	ScaleDragging = 1.06
	ScaleSelected = 1.04
	ScaleNormal   = 1.0
)

// ConnectorPath is one curved connector. Path is empty when either endpoint
// is missing.
type ConnectorPath struct {
	From string
	To   string
	Path string

	FromX, FromY float64
	CtrlX, CtrlY float64
	ToX, ToY     float64
}

// Valid reports whether both endpoints resolved.
func (c ConnectorPath) Valid() bool {
	return c.Path != ""
}

// Connectors computes a quadratic curve per connection. The control point is
// pushed off the straight line by a quarter of the distance, perpendicular to
// the direction of travel.
func Connectors(nodes []model.Node, connections []model.Connection) []ConnectorPath {
	index := make(map[string]model.Node, len(nodes))
	for _, n := range nodes {
		index[n.ID] = n
	}

	out := make([]ConnectorPath, 0, len(connections))
	for _, c := range connections {
		cp := ConnectorPath{From: c.From, To: c.To}
		from, okFrom := index[c.From]
		to, okTo := index[c.To]
		if !okFrom || !okTo {
			out = append(out, cp)
			continue
		}

		cp.FromX = from.X + NodeWidth/2
		cp.FromY = from.Y + NodeHeight/2
		cp.ToX = to.X + NodeWidth/2
		cp.ToY = to.Y + NodeHeight/2

		midX := (cp.FromX + cp.ToX) / 2
		midY := (cp.FromY + cp.ToY) / 2
		dx := cp.ToX - cp.FromX
		dy := cp.ToY - cp.FromY
		dist := math.Sqrt(dx*dx + dy*dy)
		angle := math.Atan2(dy, dx)

		offset := dist / 4
		cp.CtrlX = midX + offset*math.Sin(angle)
		cp.CtrlY = midY - offset*math.Cos(angle)

		cp.Path = strings.Join([]string{
			"M", num(cp.FromX), num(cp.FromY),
			"Q", num(cp.CtrlX), num(cp.CtrlY), num(cp.ToX), num(cp.ToY),
		}, " ")
		out = append(out, cp)
	}
	return out
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NodeStyle holds the box metrics for a node.
type NodeStyle struct {
	FontSize     float64
	PaddingX     float64
	PaddingY     float64
	MinWidth     float64
	BorderRadius float64
	LineHeight   float64
}

var (
	RootStyle  = NodeStyle{FontSize: 16, PaddingX: 28, PaddingY: 18, MinWidth: 140, BorderRadius: 12, LineHeight: 1.5}
	ChildStyle = NodeStyle{FontSize: 14, PaddingX: 20, PaddingY: 14, MinWidth: 100, BorderRadius: 8, LineHeight: 1.5}
)

// NodeVisual is a node with its presentation state.
type NodeVisual struct {
	Node     model.Node
	Selected bool
	Dragging bool
	Scale    float64
	Style    NodeStyle
}

// Size estimates the unscaled box size of the node. Text width is
// approximated from the font size; the PNG writer measures real glyphs.
func (v NodeVisual) Size() (w, h float64) {
	textW := float64(len([]rune(v.Node.Title))) * v.Style.FontSize * 0.6
	w = math.Max(v.Style.MinWidth, textW+2*v.Style.PaddingX)
	h = v.Style.FontSize*v.Style.LineHeight + 2*v.Style.PaddingY
	return w, h
}

// NodeVisuals decorates nodes with selection and drag state, keeping order.
func NodeVisuals(nodes []model.Node, selectedID, draggingID string) []NodeVisual {
	out := make([]NodeVisual, 0, len(nodes))
	for _, n := range nodes {
		v := NodeVisual{
			Node:     n,
			Selected: n.ID == selectedID && selectedID != "",
			Dragging: n.ID == draggingID && draggingID != "",
			Scale:    ScaleNormal,
			Style:    ChildStyle,
		}
		if n.IsRoot {
			v.Style = RootStyle
		}
		switch {
		case v.Dragging:
			v.Scale = ScaleDragging
		case v.Selected:
			v.Scale = ScaleSelected
		}
		out = append(out, v)
	}
	return out
}

// SceneInput is everything Project needs from the store and the controller.
type SceneInput struct {
	Nodes       []model.Node
	Connections []model.Connection
	View        model.ViewState
	SelectedID  string
	DraggingID  string
	// Interacting is true while a drag or pan is in progress.
	Interacting bool
}

// Scene is the drawable view of a map.
type Scene struct {
	TranslateX  float64
	TranslateY  float64
	Connectors  []ConnectorPath
	Nodes       []NodeVisual
	Transitions bool
}

// Project builds a Scene. Animated transitions are off while the user is
// dragging or panning.
func Project(in SceneInput) Scene {
	return Scene{
		TranslateX:  in.View.TranslateX,
		TranslateY:  in.View.TranslateY,
		Connectors:  Connectors(in.Nodes, in.Connections),
		Nodes:       NodeVisuals(in.Nodes, in.SelectedID, in.DraggingID),
		Transitions: !in.Interacting,
	}
}

// Bounds is the smallest box holding every node and connector control point.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// SceneBounds ignores the view translation; exports always show the whole map.
func SceneBounds(s Scene) Bounds {
	if len(s.Nodes) == 0 {
		return Bounds{}
	}
	b := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	grow := func(x, y float64) {
		b.MinX = math.Min(b.MinX, x)
		b.MinY = math.Min(b.MinY, y)
		b.MaxX = math.Max(b.MaxX, x)
		b.MaxY = math.Max(b.MaxY, y)
	}
	for _, v := range s.Nodes {
		w, h := v.Size()
		grow(v.Node.X, v.Node.Y)
		grow(v.Node.X+math.Max(w, NodeWidth), v.Node.Y+math.Max(h, NodeHeight))
	}
	for _, c := range s.Connectors {
		if c.Valid() {
			grow(c.CtrlX, c.CtrlY)
		}
	}
	return b
}
