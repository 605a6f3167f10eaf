package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"mindnoscape/web-app/src/pkg/interaction"
	"mindnoscape/web-app/src/pkg/model"
	"mindnoscape/web-app/src/pkg/render"
	"mindnoscape/web-app/src/pkg/storage"
)

func (c *CLI) dispatch(ctx context.Context, cmd model.Command) error {
	switch cmd.Scope {
	case "user":
		return c.userCommand(ctx, cmd)
	case "mindmap":
		return c.mindmapCommand(ctx, cmd)
	case "node":
		return c.nodeCommand(cmd)
	case "canvas":
		return c.canvasCommand(cmd)
	case "system":
		return errExit
	}
	return fmt.Errorf("invalid command scope: %s", cmd.Scope)
}

func (c *CLI) userCommand(ctx context.Context, cmd model.Command) error {
	ed := c.editor
	switch cmd.Operation {
	case "register", "login":
		email := cmd.Args[0]
		var password string
		if len(cmd.Args) > 1 {
			password = cmd.Args[1]
		} else {
			p, err := c.askPassword()
			if err != nil {
				return err
			}
			password = p
		}
		if cmd.Operation == "register" {
			return ed.Register(ctx, email, password)
		}
		return ed.Login(ctx, email, password)

	case "logout":
		ed.Logout(ctx)
		c.lastList = nil
		return nil

	case "whoami":
		if !ed.LoggedIn() {
			fmt.Fprintln(c.out, "Not logged in")
			return nil
		}
		fmt.Fprintln(c.out, ed.Email())
		return nil
	}
	return fmt.Errorf("invalid user operation: %s", cmd.Operation)
}

func (c *CLI) mindmapCommand(ctx context.Context, cmd model.Command) error {
	ed := c.editor
	switch cmd.Operation {
	case "new":
		ed.NewMap()
		return nil

	case "list":
		list, err := ed.List(ctx)
		if err != nil {
			return err
		}
		c.lastList = list
		if len(list) == 0 {
			fmt.Fprintln(c.out, "No mind maps found.")
			return nil
		}
		fmt.Fprintln(c.out, "Your mind maps:")
		for i, m := range list {
			fmt.Fprintf(c.out, "  #%d %s ", i+1, m.Title)
			c.dimColor.Fprintf(c.out, "(%d nodes, updated %s) [%s]\n", m.NodeCount, m.Updated.Local().Format("2006-01-02 15:04"), m.ID)
		}
		return nil

	case "load":
		id := ""
		if len(cmd.Args) == 1 {
			ref, err := c.mapRef(cmd.Args[0])
			if err != nil {
				return err
			}
			id = ref
		}
		if c.async {
			return ed.LoadAsync(ctx, id)
		}
		return ed.Load(ctx, id)

	case "save":
		if c.async {
			return ed.SaveAsync(ctx)
		}
		return ed.Save(ctx)

	case "delete":
		id, err := c.mapRef(cmd.Args[0])
		if err != nil {
			return err
		}
		return ed.DeleteMap(ctx, id)

	case "title":
		if len(cmd.Args) == 0 {
			fmt.Fprintln(c.out, ed.Store().Title())
			return nil
		}
		if !ed.Store().SetTitle(strings.Join(cmd.Args, " ")) {
			fmt.Fprintln(c.out, "Title unchanged")
		}
		return nil

	case "view":
		showID := len(cmd.Args) == 1 && cmd.Args[0] == "--id"
		if len(cmd.Args) == 1 && !showID {
			return fmt.Errorf("usage: mindmap view [--id]")
		}
		return render.WriteTree(c.out, ed.Store().Snapshot(), render.TreeOptions{ShowID: showID, Color: !color.NoColor})

	case "export":
		filename := cmd.Args[0]
		format := storage.FileFormat(filename)
		if len(cmd.Args) > 1 {
			format = strings.ToLower(cmd.Args[1])
		}
		if err := c.export(filename, format); err != nil {
			return err
		}
		c.printOK("Exported %q to %s", ed.Store().Title(), filename)
		return nil

	case "import":
		filename := cmd.Args[0]
		format := storage.FileFormat(filename)
		if len(cmd.Args) > 1 {
			format = strings.ToLower(cmd.Args[1])
		}
		doc, err := storage.FileImport(filename, format)
		if err != nil {
			return err
		}
		pruned, err := ed.Import(*doc)
		if err != nil {
			return err
		}
		if pruned > 0 {
			fmt.Fprintf(c.out, "Dropped %d invalid connections\n", pruned)
		}
		return nil
	}
	return fmt.Errorf("invalid mindmap operation: %s", cmd.Operation)
}

func (c *CLI) export(filename, format string) error {
	doc := c.editor.Store().Snapshot()
	switch format {
	case "json", "xml":
		return storage.FileExport(doc, filename, format)
	case "svg", "png":
		f, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer f.Close()

		scene := render.Project(render.SceneInput{Nodes: doc.Nodes, Connections: doc.Connections, View: doc.ViewState})
		if format == "svg" {
			err = render.WriteSVG(f, scene, doc.Title)
		} else {
			err = render.WritePNG(f, scene, doc.Title)
		}
		if err != nil {
			return err
		}
		return f.Close()
	}
	return fmt.Errorf("unsupported format: %s", format)
}

// mapRef resolves "#n" against the last listing; anything else is an id.
func (c *CLI) mapRef(ref string) (string, error) {
	if !strings.HasPrefix(ref, "#") {
		return ref, nil
	}
	n, err := strconv.Atoi(ref[1:])
	if err != nil || n < 1 || n > len(c.lastList) {
		return "", fmt.Errorf("no mind map %s in the last list; run 'mindmap list'", ref)
	}
	return c.lastList[n-1].ID, nil
}

func (c *CLI) nodeCommand(cmd model.Command) error {
	ed := c.editor
	store := ed.Store()
	switch cmd.Operation {
	case "add":
		child, ok := ed.Add()
		if !ok {
			return nil
		}
		title, text := child.Title, child.Text
		if len(cmd.Args) > 0 {
			title, text = splitNotes(cmd.Args)
		} else {
			title = c.ask("Title: ", title)
			text = c.ask("Notes: ", text)
		}
		if err := ed.Controller().Overlay().Save(title, text); err != nil {
			return err
		}
		n, _ := store.Node(child.ID)
		c.printOK("Added %q", n.Title)
		return nil

	case "edit":
		id, err := resolveNode(store.Snapshot(), cmd.Args[0])
		if err != nil {
			return err
		}
		ctrl := ed.Controller()
		if !ctrl.DoubleActivate(id) {
			return fmt.Errorf("node not found: %s", cmd.Args[0])
		}
		o := ctrl.Overlay()
		title, text := o.Title, o.Text
		if len(cmd.Args) > 1 {
			title, text = splitNotes(cmd.Args[1:])
		} else {
			title = c.ask("Title: ", title)
			text = c.ask("Notes: ", text)
		}
		return o.Save(title, text)

	case "select":
		if len(cmd.Args) == 0 {
			return store.Select("")
		}
		id, err := resolveNode(store.Snapshot(), cmd.Args[0])
		if err != nil {
			return err
		}
		return store.Select(id)

	case "delete":
		if len(cmd.Args) == 1 {
			id, err := resolveNode(store.Snapshot(), cmd.Args[0])
			if err != nil {
				return err
			}
			if err := store.Select(id); err != nil {
				return err
			}
		}
		ed.Delete()
		return nil

	case "connect":
		doc := store.Snapshot()
		from, err := resolveNode(doc, cmd.Args[0])
		if err != nil {
			return err
		}
		to, err := resolveNode(doc, cmd.Args[1])
		if err != nil {
			return err
		}
		added, err := store.Connect(from, to)
		if err != nil {
			return err
		}
		if !added {
			fmt.Fprintln(c.out, "Already connected")
		}
		return nil

	case "move", "drag":
		id, err := resolveNode(store.Snapshot(), cmd.Args[0])
		if err != nil {
			return err
		}
		a, err := strconv.ParseFloat(cmd.Args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid number: %s", cmd.Args[1])
		}
		b, err := strconv.ParseFloat(cmd.Args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid number: %s", cmd.Args[2])
		}
		n, _ := store.Node(id)
		dx, dy := a, b
		if cmd.Operation == "move" {
			dx, dy = a-n.X, b-n.Y
		}
		return c.dragNode(id, dx, dy)
	}
	return fmt.Errorf("invalid node operation: %s", cmd.Operation)
}

// dragSteps is how many pointer moves a scripted drag is split into.
const dragSteps = 8

// dragNode replays a pointer drag through the controller: press on the
// node's top-left corner, move in steps, release.
func (c *CLI) dragNode(id string, dx, dy float64) error {
	ctrl := c.editor.Controller()
	store := c.editor.Store()
	n, ok := store.Node(id)
	if !ok {
		return fmt.Errorf("node not found: %s", id)
	}
	view := store.View()
	startX, startY := view.TranslateX+n.X, view.TranslateY+n.Y

	if !ctrl.PointerDown(interaction.PointerEvent{X: startX, Y: startY, Target: interaction.Target{Kind: interaction.TargetNode, NodeID: id}}) {
		return fmt.Errorf("cannot drag while another interaction is active")
	}
	for i := 1; i <= dragSteps; i++ {
		f := float64(i) / dragSteps
		ctrl.PointerMove(interaction.PointerEvent{X: startX + dx*f, Y: startY + dy*f})
		if i%2 == 0 {
			ctrl.Frame()
		}
	}
	ctrl.PointerUp()
	return nil
}

func (c *CLI) canvasCommand(cmd model.Command) error {
	store := c.editor.Store()
	switch cmd.Operation {
	case "pan":
		dx, err := strconv.ParseFloat(cmd.Args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid number: %s", cmd.Args[0])
		}
		dy, err := strconv.ParseFloat(cmd.Args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid number: %s", cmd.Args[1])
		}
		ctrl := c.editor.Controller()
		if !ctrl.PointerDown(interaction.PointerEvent{Button: interaction.ButtonPrimary, Target: interaction.Target{Kind: interaction.TargetCanvas}}) {
			return fmt.Errorf("cannot pan while another interaction is active")
		}
		ctrl.PointerMove(interaction.PointerEvent{X: dx, Y: dy})
		ctrl.PointerUp()
		v := store.View()
		fmt.Fprintf(c.out, "Canvas at %g, %g\n", v.TranslateX, v.TranslateY)
		return nil

	case "reset":
		store.SetTranslate(0, 0)
		return nil
	}
	return fmt.Errorf("invalid canvas operation: %s", cmd.Operation)
}

// splitNotes splits "title words -- note words" into its two parts.
func splitNotes(args []string) (title, text string) {
	for i, a := range args {
		if a == "--" {
			return strings.Join(args[:i], " "), strings.Join(args[i+1:], " ")
		}
	}
	return strings.Join(args, " "), ""
}

// resolveNode accepts "root", a dotted tree index as shown by 'mindmap view'
// ("1.2" is the second child of the root's first child), or a node id.
// Indices win over ids.
func resolveNode(doc model.Mindmap, ref string) (string, error) {
	root, ok := doc.Root()
	if !ok {
		return "", fmt.Errorf("map has no root")
	}
	if ref == "root" || ref == "0" {
		return root.ID, nil
	}

	children := make(map[string][]string)
	for _, conn := range doc.Connections {
		children[conn.From] = append(children[conn.From], conn.To)
	}

	// walk the tree in the same order WriteTree prints it
	index := map[string]string{}
	seen := map[string]bool{root.ID: true}
	var walk func(id, prefix string)
	walk = func(id, prefix string) {
		var kids []string
		for _, k := range children[id] {
			if !seen[k] {
				seen[k] = true
				kids = append(kids, k)
			}
		}
		for i, k := range kids {
			idx := strconv.Itoa(i + 1)
			if prefix != "" {
				idx = prefix + "." + idx
			}
			index[idx] = k
			walk(k, idx)
		}
	}
	walk(root.ID, "")

	if id, ok := index[ref]; ok {
		return id, nil
	}
	for _, n := range doc.Nodes {
		if n.ID == ref {
			return n.ID, nil
		}
	}
	return "", fmt.Errorf("node not found: %s", ref)
}
