package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"mindnoscape/web-app/src/pkg/model"
)

// TreeOptions controls WriteTree output.
type TreeOptions struct {
	ShowID bool
	Color  bool
}

type treePainter struct {
	branch *color.Color
	index  *color.Color
	id     *color.Color
	root   *color.Color
}

func newTreePainter(enabled bool) treePainter {
	p := treePainter{
		branch: color.New(color.FgYellow, color.Faint),
		index:  color.New(color.FgHiYellow),
		id:     color.New(color.FgMagenta),
		root:   color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.branch, p.index, p.id, p.root} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// WriteTree prints the parent to child structure of doc as an indented tree,
// numbering children like "1.2.3". Nodes not reachable from the root are
// listed afterwards. A node reached twice is printed once.
func WriteTree(w io.Writer, doc model.Mindmap, opts TreeOptions) error {
	p := newTreePainter(opts.Color)

	root, ok := doc.Root()
	if !ok {
		_, err := fmt.Fprintln(w, "No nodes to display")
		return err
	}

	byID := make(map[string]model.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		byID[n.ID] = n
	}
	children := make(map[string][]string)
	for _, c := range doc.Connections {
		if _, ok := byID[c.To]; ok {
			children[c.From] = append(children[c.From], c.To)
		}
	}

	var sb strings.Builder
	label := func(n model.Node) string {
		s := n.Title
		if opts.ShowID {
			s += " " + p.id.Sprintf("[%s]", n.ID)
		}
		return s
	}

	seen := map[string]bool{root.ID: true}
	sb.WriteString(p.root.Sprint(root.Title))
	if opts.ShowID {
		sb.WriteString(" " + p.id.Sprintf("[%s]", root.ID))
	}
	sb.WriteByte('\n')

	var walk func(id, prefix, index string)
	walk = func(id, prefix, index string) {
		var kids []string
		for _, k := range children[id] {
			if !seen[k] {
				seen[k] = true
				kids = append(kids, k)
			}
		}
		for i, k := range kids {
			last := i == len(kids)-1
			branch, next := "├── ", "│   "
			if last {
				branch, next = "└── ", "    "
			}
			idx := strconv.Itoa(i + 1)
			if index != "" {
				idx = index + "." + idx
			}
			sb.WriteString(prefix + p.branch.Sprint(branch) + p.index.Sprint(idx) + " " + label(byID[k]) + "\n")
			walk(k, prefix+p.branch.Sprint(next), idx)
		}
	}
	walk(root.ID, "", "")

	var detached []model.Node
	for _, n := range doc.Nodes {
		if !seen[n.ID] {
			detached = append(detached, n)
		}
	}
	if len(detached) > 0 {
		sb.WriteString("Detached:\n")
		for _, n := range detached {
			sb.WriteString("  " + label(n) + "\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
