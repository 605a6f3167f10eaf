package interaction

// Overlay is the node content editor: a title and a notes field edited as a
// draft and written back to the graph on Save.
type Overlay struct {
	graph  Graph
	open   bool
	nodeID string
	Title  string
	Text   string
}

// Open loads the draft from nodeID. It fails for an unknown node.
func (o *Overlay) Open(nodeID string) bool {
	n, ok := o.graph.Node(nodeID)
	if !ok {
		return false
	}
	o.open = true
	o.nodeID = nodeID
	o.Title = n.Title
	o.Text = n.Text
	return true
}

// IsOpen reports whether the editor is showing.
func (o *Overlay) IsOpen() bool {
	return o.open
}

// NodeID returns the node being edited.
func (o *Overlay) NodeID() string {
	return o.nodeID
}

// Save writes title and text to the node and closes the editor.
func (o *Overlay) Save(title, text string) error {
	if !o.open {
		return nil
	}
	err := o.graph.UpdateNodeContent(o.nodeID, title, text)
	o.Close()
	return err
}

// Cancel closes the editor and discards the draft.
func (o *Overlay) Cancel() {
	o.Close()
}

// Close hides the editor.
func (o *Overlay) Close() {
	o.open = false
	o.nodeID = ""
	o.Title = ""
	o.Text = ""
}
