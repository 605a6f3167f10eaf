package model

import (
	"encoding/xml"
	"time"
)

// Mindmap is the persisted document: a rooted graph of nodes plus its view.
type Mindmap struct {
	XMLName     xml.Name     `json:"-" xml:"mindmap"`
	ID          string       `json:"id,omitempty" xml:"id,attr,omitempty"`
	Owner       string       `json:"owner,omitempty" xml:"owner,attr,omitempty"`
	Title       string       `json:"title" xml:"title"`
	Nodes       []Node       `json:"nodes" xml:"nodes>node"`
	Connections []Connection `json:"connections" xml:"connections>connection"`
	ViewState   ViewState    `json:"viewState" xml:"viewState"`
	Created     time.Time    `json:"createdAt,omitempty" xml:"created,attr,omitempty"`
	Updated     time.Time    `json:"updatedAt,omitempty" xml:"updated,attr,omitempty"`
}

// Root returns the root node of the map, if any.
func (m *Mindmap) Root() (Node, bool) {
	for _, n := range m.Nodes {
		if n.IsRoot {
			return n, true
		}
	}
	return Node{}, false
}

// Clone returns a deep copy of the map.
func (m Mindmap) Clone() Mindmap {
	c := m
	c.Nodes = append([]Node(nil), m.Nodes...)
	c.Connections = append([]Connection(nil), m.Connections...)
	return c
}

// MindmapSummary is the list view of a stored map.
type MindmapSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	NodeCount int       `json:"nodeCount"`
	Updated   time.Time `json:"updatedAt"`
}

// MindmapInfo carries the fields of a mind map write. Nil slices and
// pointers mean "leave unchanged" on update.
type MindmapInfo struct {
	ID          string
	Owner       string
	Title       string
	Nodes       []Node
	Connections []Connection
	ViewState   *ViewState
}

// MindmapFilter selects which MindmapInfo fields participate in a query or update.
type MindmapFilter struct {
	ID          bool
	Owner       bool
	Title       bool
	Nodes       bool
	Connections bool
	ViewState   bool
}
