package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var levelColors = map[string]*color.Color{
	"trace": color.New(color.FgBlue),
	"debug": color.New(color.FgBlue),
	"info":  color.New(color.FgHiGreen),
	"warn":  color.New(color.FgYellow),
	"error": color.New(color.FgHiRed),
	"fatal": color.New(color.FgRed),
}

// ConsoleWriter renders zerolog JSON events as "level: message key=value" lines
type ConsoleWriter struct {
	out  io.Writer
	lock sync.Mutex
}

func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	return &ConsoleWriter{out: out}
}

func (w *ConsoleWriter) Write(p []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]any
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	if err := d.Decode(&evt); err != nil {
		return 0, fmt.Errorf("cannot decode event: %s: %w", p, err)
	}

	level, _ := evt["level"].(string)
	c, ok := levelColors[level]
	if !ok {
		c = levelColors["info"]
	}

	var b strings.Builder
	b.WriteString(c.Sprint(level))
	b.WriteString(": ")

	if msg, ok := evt["message"].(string); ok {
		b.WriteString(msg)
	}

	keys := make([]string, 0, len(evt))
	for k := range evt {
		switch k {
		case "level", "message", "time", "error":
		default:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", color.New(color.Faint).Sprint(k), evt[k])
	}

	if errDetails, ok := evt["error"]; ok {
		b.WriteString("\n")
		fmt.Fprint(&b, errDetails)
	}

	b.WriteString("\n")

	if _, err := io.WriteString(w.out, b.String()); err != nil {
		return 0, err
	}

	return len(p), nil
}
