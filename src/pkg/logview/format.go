// Package logview follows the JSON log files written by package log and
// prints them in a compact, colored form.
package logview

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Entry is one decoded log line.
type Entry map[string]interface{}

// ParseEntry decodes a single JSON log line.
func ParseEntry(line []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(line, &e); err != nil {
		return nil, fmt.Errorf("failed to parse log entry: %w", err)
	}
	return e, nil
}

type palette struct {
	time  *color.Color
	key   *color.Color
	gap   *color.Color
	note  *color.Color
	err   *color.Color
	level map[string]*color.Color
	other *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		time:  color.New(color.FgMagenta),
		key:   color.New(color.FgCyan),
		gap:   color.New(color.FgMagenta),
		note:  color.New(color.FgGreen),
		err:   color.New(color.FgRed),
		other: color.New(color.FgWhite),
		level: map[string]*color.Color{
			"DEBUG": color.New(color.FgBlue),
			"INFO":  color.New(color.FgGreen),
			"WARN":  color.New(color.FgYellow),
			"ERROR": color.New(color.FgRed),
		},
	}
	all := []*color.Color{p.time, p.key, p.gap, p.note, p.err, p.other}
	for _, c := range p.level {
		all = append(all, c)
	}
	for _, c := range all {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.Format("06-01-02 15:04:05.000000")
}

// format renders e as a header line followed by one indented line per
// extra attribute, sorted by key.
func (p palette) format(e Entry) string {
	ts, _ := e["time"].(string)
	level, _ := e["level"].(string)
	msg, _ := e["msg"].(string)

	level = strings.ToUpper(level)
	lc, ok := p.level[level]
	if !ok {
		lc = p.other
	}

	var sb strings.Builder
	sb.WriteString(p.time.Sprint(formatTimestamp(ts)))
	sb.WriteByte(' ')
	sb.WriteString(lc.Sprintf("%-5s", level))
	sb.WriteByte(' ')
	sb.WriteString(msg)

	keys := make([]string, 0, len(e))
	for k := range e {
		if k != "time" && k != "level" && k != "msg" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "\n    %s %v", p.key.Sprint(k+":"), e[k])
	}
	return sb.String()
}
