// Package cli is the interactive terminal front end of the mind map editor.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"mindnoscape/web-app/src/pkg/editor"
	"mindnoscape/web-app/src/pkg/interaction"
	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
)

// errExit is returned by Execute when the user asks to leave.
var errExit = errors.New("exit requested")

// CLI represents the command-line interface
type CLI struct {
	editor *editor.Editor
	rl     *readline.Instance
	out    io.Writer
	logger *log.Logger

	// async routes saves and loads through the editor inbox
	async      bool
	frameEvery time.Duration
	lastStatus string
	lastList   []model.MindmapSummary

	okColor     *color.Color
	errColor    *color.Color
	statusColor *color.Color
	dimColor    *color.Color
}

// NewCLI creates a CLI that writes to out. Use Attach to give it a terminal.
func NewCLI(ed *editor.Editor, out io.Writer, logger *log.Logger) (*CLI, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}
	if ed == nil {
		logger.Error(context.Background(), "Editor not initialized", nil)
		return nil, fmt.Errorf("editor not initialized")
	}
	if out == nil {
		out = os.Stdout
	}
	return &CLI{
		editor:      ed,
		out:         out,
		logger:      logger,
		lastStatus:  ed.Status(),
		okColor:     color.New(color.FgGreen),
		errColor:    color.New(color.FgRed),
		statusColor: color.New(color.FgYellow),
		dimColor:    color.New(color.Faint),
	}, nil
}

// Attach connects an interactive readline terminal using cfg's history file.
// Saves and loads then run in the background.
func (c *CLI) Attach(cfg *model.Config) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.Prompt(),
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	c.rl = rl
	c.out = rl.Stdout()
	c.async = true
	c.frameEvery = time.Duration(cfg.FrameInterval) * time.Millisecond
	return nil
}

// Close releases the terminal.
func (c *CLI) Close() error {
	if c.rl == nil {
		return nil
	}
	return c.rl.Close()
}

// Prompt shows the user and map being edited.
func (c *CLI) Prompt() string {
	title := c.editor.Store().Title()
	if email := c.editor.Email(); email != "" {
		return fmt.Sprintf("%s @ %s > ", email, title)
	}
	return fmt.Sprintf("%s > ", title)
}

type readResult struct {
	line string
	err  error
}

// Run reads commands until exit, EOF or ctx is done. Background completions
// are applied between commands.
func (c *CLI) Run(ctx context.Context) error {
	if c.rl == nil {
		return fmt.Errorf("no terminal attached")
	}

	fmt.Fprintln(c.out, "Welcome to Mindnoscape!")
	fmt.Fprintln(c.out, "Type 'help' for a list of commands or 'exit' to quit.")
	c.printStatus()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frame := c.editor.Controller().Frame
	go interaction.RunFrames(ctx, c.frameEvery, func(fn func()) { c.editor.TryPost(fn) }, func() { frame() })

	lines := make(chan readResult)
	next := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case <-next:
			case <-ctx.Done():
				return
			}
			line, err := c.rl.Readline()
			select {
			case lines <- readResult{line, err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	next <- struct{}{}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case fn := <-c.editor.Inbox():
			fn()
			// frames arrive every tick; redraw only for news
			if c.editor.Status() == c.lastStatus {
				continue
			}
			c.printStatus()
			c.rl.SetPrompt(c.Prompt())
			c.rl.Refresh()

		case r := <-lines:
			if r.err != nil {
				if errors.Is(r.err, readline.ErrInterrupt) {
					fmt.Fprintln(c.out, "Use 'exit' or 'quit' to exit the program.")
					next <- struct{}{}
					continue
				}
				if errors.Is(r.err, io.EOF) {
					return nil
				}
				return r.err
			}

			err := c.Execute(ctx, r.line)
			if errors.Is(err, errExit) {
				return nil
			}
			c.rl.SetPrompt(c.Prompt())
			next <- struct{}{}
		}
	}
}

// RunScript executes one command per line from r. Blank lines and lines
// starting with '#' are skipped. It stops at the first failing command.
func (c *CLI) RunScript(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		err := c.Execute(ctx, line)
		c.editor.Wait()
		c.editor.Drain()
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// Execute parses and runs one command line. Errors are also printed.
func (c *CLI) Execute(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	if input == "exit" || input == "quit" {
		return errExit
	}

	cmd, err := parseCommand(input)
	if err != nil {
		c.printError(err)
		return err
	}
	c.logger.Debug(ctx, "Command parsed", log.Fields{"scope": cmd.Scope, "operation": cmd.Operation})

	if cmd.Scope == "help" {
		args := cmd.Args
		if cmd.Operation != "" {
			args = append([]string{cmd.Operation}, args...)
		}
		c.printHelp(args)
		return nil
	}

	if err := validateCommand(cmd); err != nil {
		c.printError(err)
		return err
	}

	err = c.dispatch(ctx, cmd)
	if errors.Is(err, errExit) {
		return err
	}
	if err != nil {
		c.logger.Info(ctx, "Command failed", log.Fields{"scope": cmd.Scope, "operation": cmd.Operation, "error": err})
		c.printStatusOr(err)
		return err
	}
	c.printStatus()
	return nil
}

// printStatus prints the editor status when it changed since last shown.
func (c *CLI) printStatus() {
	s := c.editor.Status()
	if s == c.lastStatus {
		return
	}
	c.lastStatus = s
	c.statusColor.Fprintln(c.out, s)
}

// printStatusOr prefers a fresh status message over the raw error.
func (c *CLI) printStatusOr(err error) {
	if c.editor.Status() != c.lastStatus {
		c.printStatus()
		return
	}
	c.printError(err)
}

func (c *CLI) printError(err error) {
	c.errColor.Fprintf(c.out, "Error: %v\n", err)
}

func (c *CLI) printOK(format string, args ...interface{}) {
	c.okColor.Fprintf(c.out, format+"\n", args...)
}

// ask prompts for a value on the terminal, returning def when there is none.
func (c *CLI) ask(prompt, def string) string {
	if c.rl == nil {
		return def
	}
	defer c.rl.SetPrompt(c.Prompt())
	c.rl.SetPrompt(prompt)
	line, err := c.rl.ReadlineWithDefault(def)
	if err != nil {
		return def
	}
	return line
}

// askPassword reads a password without echo.
func (c *CLI) askPassword() (string, error) {
	if c.rl == nil {
		return "", fmt.Errorf("password required")
	}
	b, err := c.rl.ReadPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// parseCommand parses user input into a model.Command. Double quotes group
// words into one argument.
func parseCommand(input string) (model.Command, error) {
	args, err := splitArgs(input)
	if err != nil {
		return model.Command{}, err
	}
	if len(args) == 0 {
		return model.Command{}, fmt.Errorf("empty command")
	}

	cmd := model.Command{
		Scope: strings.ToLower(args[0]),
		Args:  []string{},
	}
	if len(args) > 1 {
		cmd.Operation = strings.ToLower(args[1])
		cmd.Args = args[2:]
	}
	return cmd, nil
}

func splitArgs(input string) ([]string, error) {
	var args []string
	var cur strings.Builder
	inQuote, have := false, false
	for _, r := range input {
		switch {
		case r == '"':
			inQuote = !inQuote
			have = true
		case !inQuote && (r == ' ' || r == '\t'):
			if have {
				args = append(args, cur.String())
				cur.Reset()
				have = false
			}
		default:
			cur.WriteRune(r)
			have = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	if have {
		args = append(args, cur.String())
	}
	return args, nil
}

// validateCommand checks the scope, operation and argument count against the
// command table.
func validateCommand(cmd model.Command) error {
	h, ok := findHelp(cmd.Scope, cmd.Operation)
	if !ok {
		if cmd.Scope == "system" && cmd.Operation == "quit" {
			return nil
		}
		for _, known := range commandHelps {
			if known.Scope == cmd.Scope {
				return fmt.Errorf("invalid %s operation: %q", cmd.Scope, cmd.Operation)
			}
		}
		return fmt.Errorf("invalid command scope: %s", cmd.Scope)
	}
	n := len(cmd.Args)
	if n < h.MinArgs || (h.MaxArgs >= 0 && n > h.MaxArgs) {
		return fmt.Errorf("usage: %s", h.Syntax)
	}
	return nil
}

func completer() *readline.PrefixCompleter {
	scopes := map[string][]readline.PrefixCompleterInterface{}
	var order []string
	for _, h := range commandHelps {
		if _, ok := scopes[h.Scope]; !ok {
			order = append(order, h.Scope)
		}
		scopes[h.Scope] = append(scopes[h.Scope], readline.PcItem(h.Operation))
	}
	items := make([]readline.PrefixCompleterInterface, 0, len(order)+2)
	for _, s := range order {
		items = append(items, readline.PcItem(s, scopes[s]...))
	}
	items = append(items, readline.PcItem("help"), readline.PcItem("exit"))
	return readline.NewPrefixCompleter(items...)
}

// printHelp prints the help message based on the provided arguments
func (c *CLI) printHelp(args []string) {
	switch len(args) {
	case 0:
		c.showGeneralHelp()
	case 1:
		c.showScopeHelp(args[0])
	case 2:
		c.showOperationHelp(args[0], args[1])
	default:
		fmt.Fprintln(c.out, "Invalid help command. Use 'help [scope] [operation]'")
	}
}

func (c *CLI) showGeneralHelp() {
	fmt.Fprintln(c.out, "Command syntax: <scope> <operation> [arguments]")
	fmt.Fprintln(c.out, "\nAvailable commands:")
	currentScope := ""
	for _, cmd := range commandHelps {
		if cmd.Scope != currentScope {
			fmt.Fprintf(c.out, "\n%s:\n", cmd.Scope)
			currentScope = cmd.Scope
		}
		fmt.Fprintf(c.out, "  %-10s %s\n", cmd.Operation, cmd.ShortDesc)
	}
}

func (c *CLI) showScopeHelp(scope string) {
	fmt.Fprintf(c.out, "Commands for %s:\n\n", scope)
	for _, cmd := range commandHelps {
		if cmd.Scope == scope {
			fmt.Fprintf(c.out, "%-10s %s\n", cmd.Operation, cmd.ShortDesc)
		}
	}
}

func (c *CLI) showOperationHelp(scope, operation string) {
	cmd, ok := findHelp(scope, operation)
	if !ok {
		fmt.Fprintf(c.out, "No help found for %s %s\n", scope, operation)
		return
	}
	fmt.Fprintf(c.out, "Command: %s %s\n", scope, operation)
	fmt.Fprintf(c.out, "Description: %s\n", cmd.LongDesc)
	fmt.Fprintf(c.out, "Syntax: %s\n", cmd.Syntax)
	if len(cmd.Arguments) > 0 {
		fmt.Fprintln(c.out, "Arguments:")
		for _, arg := range cmd.Arguments {
			fmt.Fprintf(c.out, "  %s\n", arg)
		}
	}
	if len(cmd.Examples) > 0 {
		fmt.Fprintln(c.out, "Examples:")
		for _, ex := range cmd.Examples {
			fmt.Fprintf(c.out, "  %s\n", ex)
		}
	}
}
