package cli

// CommandHelp represents the structure of help information for a specific command.
type CommandHelp struct {
	Scope     string
	Operation string
	ShortDesc string
	LongDesc  string
	Syntax    string
	Arguments []string
	Examples  []string
	// MinArgs and MaxArgs bound the argument count; MaxArgs < 0 means unbounded.
	MinArgs int
	MaxArgs int
}

// commandHelps is the command table: help text and argument bounds.
var commandHelps = []CommandHelp{
	{
		Scope:     "user",
		Operation: "register",
		ShortDesc: "Create an account and log in",
		LongDesc:  "Registers a new account on the server and starts a session for it. The password is prompted for when omitted.",
		Syntax:    "user register <email> [password]",
		Arguments: []string{"email: A valid email address", "password: (Optional) At least 6 characters"},
		Examples:  []string{"user register ada@example.com", "user register ada@example.com secret1"},
		MinArgs:   1, MaxArgs: 2,
	},
	{
		Scope:     "user",
		Operation: "login",
		ShortDesc: "Log in",
		LongDesc:  "Starts a session with an existing account. The session is remembered between runs.",
		Syntax:    "user login <email> [password]",
		Arguments: []string{"email: The account email", "password: (Optional) Prompted for when omitted"},
		Examples:  []string{"user login ada@example.com"},
		MinArgs:   1, MaxArgs: 2,
	},
	{
		Scope:     "user",
		Operation: "logout",
		ShortDesc: "Log out",
		LongDesc:  "Ends the session and discards the map being edited.",
		Syntax:    "user logout",
		Examples:  []string{"user logout"},
	},
	{
		Scope:     "user",
		Operation: "whoami",
		ShortDesc: "Show the logged in user",
		LongDesc:  "Prints the email of the current session.",
		Syntax:    "user whoami",
		Examples:  []string{"user whoami"},
	},
	{
		Scope:     "mindmap",
		Operation: "new",
		ShortDesc: "Start a new mind map",
		LongDesc:  "Discards the current map and starts over from a single central idea. Unsaved changes are lost.",
		Syntax:    "mindmap new",
		Examples:  []string{"mindmap new"},
	},
	{
		Scope:     "mindmap",
		Operation: "list",
		ShortDesc: "List stored mind maps",
		LongDesc:  "Displays your stored mind maps, most recently updated first. The numbers can be used with load and delete.",
		Syntax:    "mindmap list",
		Examples:  []string{"mindmap list"},
	},
	{
		Scope:     "mindmap",
		Operation: "load",
		ShortDesc: "Load a mind map",
		LongDesc:  "Replaces the current map with a stored one. Without an argument the most recently updated map is loaded.",
		Syntax:    "mindmap load [id|#n]",
		Arguments: []string{"id: A map id", "#n: A position from the last 'mindmap list'"},
		Examples:  []string{"mindmap load", "mindmap load #2"},
		MaxArgs:   1,
	},
	{
		Scope:     "mindmap",
		Operation: "save",
		ShortDesc: "Save the mind map",
		LongDesc:  "Stores the current map on the server. A map that was loaded or saved before is updated in place.",
		Syntax:    "mindmap save",
		Examples:  []string{"mindmap save"},
	},
	{
		Scope:     "mindmap",
		Operation: "delete",
		ShortDesc: "Delete a stored mind map",
		LongDesc:  "Deletes a map from the server.",
		Syntax:    "mindmap delete <id|#n>",
		Arguments: []string{"id: A map id", "#n: A position from the last 'mindmap list'"},
		Examples:  []string{"mindmap delete #1"},
		MinArgs:   1, MaxArgs: 1,
	},
	{
		Scope:     "mindmap",
		Operation: "title",
		ShortDesc: "Show or rename the mind map",
		LongDesc:  "Prints the title, or sets it. An empty title or \"Untitled Map\" keeps the current one.",
		Syntax:    "mindmap title [new title]",
		Examples:  []string{"mindmap title", "mindmap title Garden plans"},
		MaxArgs:   -1,
	},
	{
		Scope:     "mindmap",
		Operation: "view",
		ShortDesc: "View mind map structure",
		LongDesc:  "Displays the map as a tree. Node indices shown here can be used wherever a node is expected.",
		Syntax:    "mindmap view [--id]",
		Arguments: []string{"--id: (Optional) Show node ids"},
		Examples:  []string{"mindmap view", "mindmap view --id"},
		MaxArgs:   1,
	},
	{
		Scope:     "mindmap",
		Operation: "export",
		ShortDesc: "Export the mind map to a file",
		LongDesc:  "Writes the current map as JSON or XML, or draws it as SVG or PNG. The format defaults to the file extension.",
		Syntax:    "mindmap export <filename> [json|xml|svg|png]",
		Arguments: []string{"filename: The file to write", "format: (Optional) Overrides the extension"},
		Examples:  []string{"mindmap export ideas.json", "mindmap export ideas.png"},
		MinArgs:   1, MaxArgs: 2,
	},
	{
		Scope:     "mindmap",
		Operation: "import",
		ShortDesc: "Import a mind map from a file",
		LongDesc:  "Opens a JSON or XML file as a new, unsaved map.",
		Syntax:    "mindmap import <filename> [json|xml]",
		Arguments: []string{"filename: The file to read", "format: (Optional) Overrides the extension"},
		Examples:  []string{"mindmap import ideas.json", "mindmap import ideas.xml xml"},
		MinArgs:   1, MaxArgs: 2,
	},
	{
		Scope:     "node",
		Operation: "add",
		ShortDesc: "Add a node",
		LongDesc:  "Adds a child to the selected node, or to the central idea when nothing is selected, and selects it. Without a title the node editor prompts for one.",
		Syntax:    "node add [title]",
		Examples:  []string{"node add", "node add Tomatoes"},
		MaxArgs:   -1,
	},
	{
		Scope:     "node",
		Operation: "edit",
		ShortDesc: "Edit a node's title and notes",
		LongDesc:  "Opens the node editor. Editing the central idea also renames the map.",
		Syntax:    "node edit <node> [title] [-- notes]",
		Arguments: []string{"node: A tree index (1.2), 'root' or a node id", "title: (Optional) New title", "notes: (Optional) Text after '--'"},
		Examples:  []string{"node edit 1.2", "node edit 1 Tomatoes -- south bed"},
		MinArgs:   1, MaxArgs: -1,
	},
	{
		Scope:     "node",
		Operation: "select",
		ShortDesc: "Select a node",
		LongDesc:  "Selects a node, or clears the selection when no node is given.",
		Syntax:    "node select [node]",
		Examples:  []string{"node select 2", "node select"},
		MaxArgs:   1,
	},
	{
		Scope:     "node",
		Operation: "delete",
		ShortDesc: "Delete a node",
		LongDesc:  "Deletes the given or selected node and every connection touching it. The central idea cannot be deleted.",
		Syntax:    "node delete [node]",
		Examples:  []string{"node delete", "node delete 1.2"},
		MaxArgs:   1,
	},
	{
		Scope:     "node",
		Operation: "connect",
		ShortDesc: "Connect two nodes",
		LongDesc:  "Adds a connection from one node to another.",
		Syntax:    "node connect <from> <to>",
		Examples:  []string{"node connect 1 2.1"},
		MinArgs:   2, MaxArgs: 2,
	},
	{
		Scope:     "node",
		Operation: "move",
		ShortDesc: "Move a node to a position",
		LongDesc:  "Drags a node so that its top-left corner ends at the given canvas position.",
		Syntax:    "node move <node> <x> <y>",
		Examples:  []string{"node move 1.1 600 250"},
		MinArgs:   3, MaxArgs: 3,
	},
	{
		Scope:     "node",
		Operation: "drag",
		ShortDesc: "Drag a node by an offset",
		LongDesc:  "Drags a node by dx, dy pixels.",
		Syntax:    "node drag <node> <dx> <dy>",
		Examples:  []string{"node drag 2 -40 15"},
		MinArgs:   3, MaxArgs: 3,
	},
	{
		Scope:     "canvas",
		Operation: "pan",
		ShortDesc: "Pan the canvas",
		LongDesc:  "Moves the whole canvas by dx, dy pixels. Node positions are unchanged.",
		Syntax:    "canvas pan <dx> <dy>",
		Examples:  []string{"canvas pan 100 -50"},
		MinArgs:   2, MaxArgs: 2,
	},
	{
		Scope:     "canvas",
		Operation: "reset",
		ShortDesc: "Reset the canvas translation",
		LongDesc:  "Moves the canvas back to its origin.",
		Syntax:    "canvas reset",
		Examples:  []string{"canvas reset"},
	},
	{
		Scope:     "system",
		Operation: "exit",
		ShortDesc: "Exit the program",
		LongDesc:  "Exits the editor. Unsaved changes are lost.",
		Syntax:    "system exit",
		Examples:  []string{"system exit", "exit"},
	},
}

func findHelp(scope, operation string) (CommandHelp, bool) {
	for _, h := range commandHelps {
		if h.Scope == scope && h.Operation == operation {
			return h, true
		}
	}
	return CommandHelp{}, false
}
