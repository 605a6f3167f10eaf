// Package interaction turns pointer input into Graph Store mutations.
//
// The Controller is a three-state machine (idle, dragging a node, panning the
// canvas). Pointer moves are coalesced so that at most one position update is
// applied per rendered frame.
package interaction

import (
	"context"

	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
)

// Mode is the controller state.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModePanning
)

func (m Mode) String() string {
	switch m {
	case ModeDragging:
		return "dragging"
	case ModePanning:
		return "panning"
	default:
		return "idle"
	}
}

// Button identifies the pressed pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// TargetKind is the kind of element under the pointer.
type TargetKind int

const (
	TargetCanvas TargetKind = iota
	TargetNode
	TargetToolbar
	TargetInstructions
	TargetTextEditor
	TargetTitleEditor
)

// Target is the element a pointer event hit.
type Target struct {
	Kind   TargetKind
	NodeID string
}

// PointerEvent is a pointer position in client coordinates.
type PointerEvent struct {
	X, Y   float64
	Button Button
	Target Target
}

// Viewport is the on-screen origin of the canvas container.
type Viewport struct {
	OriginX, OriginY float64
}

// Graph is the part of the Graph Store the controller mutates.
type Graph interface {
	Node(id string) (model.Node, bool)
	MoveNode(id string, x, y float64) error
	Select(id string) error
	View() model.ViewState
	SetTranslate(x, y float64)
	UpdateNodeContent(id, title, text string) error
}

// Controller is the interaction state machine. It is not safe for concurrent use.
type Controller struct {
	graph    Graph
	viewport Viewport
	logger   *log.Logger

	mode    Mode
	dragID  string
	offsetX float64
	offsetY float64

	panStartX, panStartY float64
	panTransX, panTransY float64

	moves   FrameCoalescer[PointerEvent]
	overlay Overlay
}

// NewController creates an idle controller over graph.
func NewController(graph Graph, viewport Viewport, logger *log.Logger) *Controller {
	c := &Controller{
		graph:    graph,
		viewport: viewport,
		logger:   logger,
	}
	c.overlay.graph = graph
	return c
}

// Mode returns the current state.
func (c *Controller) Mode() Mode {
	return c.mode
}

// DraggingID returns the node being dragged, or "".
func (c *Controller) DraggingID() string {
	return c.dragID
}

// Active reports whether a drag or pan is in progress. Animated transitions
// are suppressed while it is true.
func (c *Controller) Active() bool {
	return c.mode != ModeIdle
}

// SetViewport updates the container origin, e.g. after a resize.
func (c *Controller) SetViewport(v Viewport) {
	c.viewport = v
}

// Overlay returns the node content editor.
func (c *Controller) Overlay() *Overlay {
	return &c.overlay
}

// PointerDown starts a drag on a node or a pan on empty canvas. It is ignored
// unless the controller is idle. Panning needs the primary button and a hit
// on the canvas itself; toolbar, instructions and editor overlays never pan.
func (c *Controller) PointerDown(ev PointerEvent) bool {
	if c.mode != ModeIdle {
		return false
	}

	switch ev.Target.Kind {
	case TargetNode:
		n, ok := c.graph.Node(ev.Target.NodeID)
		if !ok {
			return false
		}
		view := c.graph.View()
		left := c.viewport.OriginX + view.TranslateX + n.X
		top := c.viewport.OriginY + view.TranslateY + n.Y

		c.offsetX = ev.X - left
		c.offsetY = ev.Y - top
		c.dragID = n.ID
		c.mode = ModeDragging
		if err := c.graph.Select(n.ID); err != nil {
			c.logger.Warn(context.Background(), "Failed to select dragged node", log.Fields{"node": n.ID, "error": err})
		}
		c.logger.Debug(context.Background(), "Drag started", log.Fields{"node": n.ID})
		return true

	case TargetCanvas:
		if ev.Button != ButtonPrimary {
			return false
		}
		view := c.graph.View()
		c.panStartX, c.panStartY = ev.X, ev.Y
		c.panTransX, c.panTransY = view.TranslateX, view.TranslateY
		c.mode = ModePanning
		if err := c.graph.Select(""); err != nil {
			c.logger.Warn(context.Background(), "Failed to clear selection", log.Fields{"error": err})
		}
		c.logger.Debug(context.Background(), "Pan started", nil)
		return true
	}

	return false
}

// PointerMove records the latest pointer position. Nothing is applied until Frame.
func (c *Controller) PointerMove(ev PointerEvent) {
	if c.mode == ModeIdle {
		return
	}
	c.moves.Offer(ev)
}

// Frame applies the most recent pending move, if any. Call it once per rendered frame.
func (c *Controller) Frame() bool {
	return c.moves.Flush(c.apply)
}

func (c *Controller) apply(ev PointerEvent) {
	switch c.mode {
	case ModeDragging:
		view := c.graph.View()
		x := ev.X - c.viewport.OriginX - c.offsetX - view.TranslateX
		y := ev.Y - c.viewport.OriginY - c.offsetY - view.TranslateY
		if err := c.graph.MoveNode(c.dragID, x, y); err != nil {
			c.logger.Warn(context.Background(), "Dragged node vanished", log.Fields{"node": c.dragID, "error": err})
		}
	case ModePanning:
		c.graph.SetTranslate(
			c.panTransX+(ev.X-c.panStartX),
			c.panTransY+(ev.Y-c.panStartY),
		)
	}
}

// PointerUp ends any drag or pan. The last pending move is committed first.
func (c *Controller) PointerUp() {
	c.Frame()
	c.end()
}

// PointerLeave behaves like PointerUp.
func (c *Controller) PointerLeave() {
	c.PointerUp()
}

func (c *Controller) end() {
	if c.mode != ModeIdle {
		c.logger.Debug(context.Background(), "Interaction ended", log.Fields{"mode": c.mode.String(), "coalesced": c.moves.Dropped()})
	}
	c.moves.Cancel()
	c.mode = ModeIdle
	c.dragID = ""
	c.offsetX, c.offsetY = 0, 0
}

// Cancel drops any pending move and returns to idle without applying it.
// The editor calls it when the map under the pointer is replaced.
func (c *Controller) Cancel() {
	c.end()
	c.overlay.Close()
}

// DoubleActivate opens the content editor for a node without touching drag or pan state.
func (c *Controller) DoubleActivate(nodeID string) bool {
	return c.overlay.Open(nodeID)
}
