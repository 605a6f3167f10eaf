package model

// Default node and map values.
const (
	RootNodeID       = "1"
	RootNodeTitle    = "Central Idea"
	RootNodeColor    = "#dc2626"
	RootNodeX        = 400
	RootNodeY        = 300
	NodeDefaultTitle = "New Idea"
	MapDefaultTitle  = "Untitled Map"
	// StoredDefaultTitle is the title the server assigns when a document arrives without one.
	StoredDefaultTitle = "My Mind Map"
)

// Palette is the set of colors new child nodes are drawn from.
var Palette = []string{
	"#EF4444",
	"#F97316",
	"#EAB308",
	"#22C55E",
	"#3B82F6",
	"#A855F7",
	"#EC4899",
}

// Node represents a single labeled idea on the canvas.
type Node struct {
	ID     string  `json:"id" xml:"id,attr"`
	X      float64 `json:"x" xml:"x,attr"`
	Y      float64 `json:"y" xml:"y,attr"`
	Title  string  `json:"title" xml:"title"`
	Text   string  `json:"text" xml:"text"`
	IsRoot bool    `json:"isRoot" xml:"root,attr"`
	Color  string  `json:"color" xml:"color,attr"`
}

// Connection is a directed parent to child edge. Its identity is the pair.
type Connection struct {
	From string `json:"from" xml:"from,attr"`
	To   string `json:"to" xml:"to,attr"`
}

// ViewState is the canvas translation persisted alongside the map.
type ViewState struct {
	TranslateX float64 `json:"translateX" xml:"translateX,attr"`
	TranslateY float64 `json:"translateY" xml:"translateY,attr"`
}

// RootNode returns the seed node every fresh map starts with.
func RootNode() Node {
	return Node{
		ID:     RootNodeID,
		X:      RootNodeX,
		Y:      RootNodeY,
		Title:  RootNodeTitle,
		IsRoot: true,
		Color:  RootNodeColor,
	}
}
