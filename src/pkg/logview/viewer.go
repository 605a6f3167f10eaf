package logview

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
)

// GapMarker is printed once after output has been idle for the gap window.
const GapMarker = "◆"

// Viewer prints new entries appended to the *.log files of one directory.
// It is not safe for concurrent use; Run owns it once started.
type Viewer struct {
	dir       string
	out       io.Writer
	filter    string
	gap       time.Duration
	colors    palette
	positions map[string]int64
	known     map[string]bool

	lastPrint time.Time
	gapShown  bool
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithFilter only prints entries whose rendered text contains s, ignoring case.
func WithFilter(s string) Option {
	return func(v *Viewer) { v.filter = strings.ToLower(s) }
}

// WithGap sets the idle window after which a gap marker is printed. Zero
// disables the marker.
func WithGap(d time.Duration) Option {
	return func(v *Viewer) { v.gap = d }
}

// WithColor turns colored output on or off.
func WithColor(enabled bool) Option {
	return func(v *Viewer) { v.colors = newPalette(enabled) }
}

// NewViewer checks that dir exists and returns a viewer writing to out.
func NewViewer(dir string, out io.Writer, opts ...Option) (*Viewer, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("log directory '%s': %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("'%s' is not a directory", dir)
	}

	v := &Viewer{
		dir:       dir,
		out:       out,
		gap:       100 * time.Millisecond,
		colors:    newPalette(false),
		positions: make(map[string]int64),
		known:     make(map[string]bool),
		lastPrint: time.Now(),
		gapShown:  true,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Poll reads whatever was appended to every log file since the last call.
func (v *Viewer) Poll() error {
	files, err := filepath.Glob(filepath.Join(v.dir, "*.log"))
	if err != nil {
		return fmt.Errorf("failed to list log files: %w", err)
	}
	for _, f := range files {
		if err := v.readFile(f); err != nil {
			v.notice(v.colors.err, err.Error())
		}
	}
	return nil
}

func (v *Viewer) readFile(path string) error {
	name := filepath.Base(path)
	if !v.known[path] {
		v.known[path] = true
		v.notice(v.colors.note, fmt.Sprintf("New log file detected: %s", name))
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", name, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("error getting file stats for %s: %w", name, err)
	}
	pos := v.positions[path]
	if stat.Size() < pos {
		v.notice(v.colors.level["WARN"], fmt.Sprintf("%s has been truncated, starting from beginning", name))
		pos = 0
	}
	if _, err := f.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("error seeking in %s: %w", name, err)
	}

	// only consume complete lines so a half-written entry is read next time
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading %s: %w", name, err)
		}
		pos += int64(len(line))
		v.printLine(line)
	}
	v.positions[path] = pos
	return nil
}

func (v *Viewer) printLine(line []byte) {
	if len(strings.TrimSpace(string(line))) == 0 {
		return
	}
	e, err := ParseEntry(line)
	if err != nil {
		v.notice(v.colors.err, fmt.Sprintf("Error parsing log entry: %v", err))
		return
	}
	text := v.colors.format(e)
	if v.filter != "" && !strings.Contains(strings.ToLower(text), v.filter) {
		return
	}
	fmt.Fprintln(v.out, text)
	v.lastPrint = time.Now()
	v.gapShown = false
}

func (v *Viewer) notice(c *color.Color, msg string) {
	fmt.Fprintln(v.out, c.Sprint(msg))
}

// markGap prints the gap marker once per idle period.
func (v *Viewer) markGap(now time.Time) {
	if v.gap <= 0 || v.gapShown || now.Sub(v.lastPrint) <= v.gap {
		return
	}
	fmt.Fprintln(v.out, v.colors.gap.Sprint(GapMarker))
	v.gapShown = true
}

// Run prints existing entries and then follows the directory until ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(v.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", v.dir, err)
	}
	if err := v.Poll(); err != nil {
		return err
	}

	tick := v.gap / 2
	if tick <= 0 {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".log") {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				if err := v.readFile(ev.Name); err != nil {
					v.notice(v.colors.err, err.Error())
				}
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				delete(v.positions, ev.Name)
				delete(v.known, ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			v.notice(v.colors.err, fmt.Sprintf("watch error: %v", err))
		case now := <-ticker.C:
			v.markGap(now)
		}
	}
}
