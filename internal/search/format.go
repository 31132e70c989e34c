package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MatchMessage describes a reported repository root.
type MatchMessage struct {
	Path  string `json:"path"`  // Full path to the repository root
	Name  string `json:"name"`  // Base name of the root
	Dir   string `json:"dir"`   // Directory containing the root
	Depth int    `json:"depth"` // Depth below the search root
}

// NewMatchMessage builds the message for a match event. When nfc is set the
// path is normalised to Unicode NFC first.
func NewMatchMessage(ev Event, nfc bool) MatchMessage {
	path := ev.Path
	if nfc {
		path = norm.NFC.String(path)
	}
	return MatchMessage{
		Path:  path,
		Name:  filepath.Base(path),
		Dir:   filepath.Dir(path),
		Depth: ev.Depth,
	}
}

// FormatMatch replaces placeholders in template with values from msg.
func FormatMatch(template string, msg MatchMessage) string {
	depth := strconv.Itoa(msg.Depth)

	str := template
	str = strings.ReplaceAll(str, `{""}`, strconv.Quote(msg.Path))
	str = strings.ReplaceAll(str, `{"base"}`, strconv.Quote(msg.Name))
	str = strings.ReplaceAll(str, `{"dir"}`, strconv.Quote(msg.Dir))
	str = strings.ReplaceAll(str, `{"depth"}`, strconv.Quote(depth))

	str = strings.ReplaceAll(str, "{}", msg.Path)
	str = strings.ReplaceAll(str, "{base}", msg.Name)
	str = strings.ReplaceAll(str, "{dir}", msg.Dir)
	str = strings.ReplaceAll(str, "{depth}", depth)
	return str
}

// Printer writes matches in one of the supported output modes.
type Printer struct {
	Out    io.Writer // Standard output
	Err    io.Writer // Stderr of executed commands
	Format string    // Template for each line, plain path when empty
	Exec   string    // Command template run for each match instead of printing
	JSON   bool      // One JSON object per line
	NFC    bool      // Normalise paths to NFC
}

// Print outputs a single match.
func (p *Printer) Print(ctx context.Context, ev Event) error {
	msg := NewMatchMessage(ev, p.NFC)

	switch {
	case p.Exec != "":
		return ExecMatch(ctx, p.Exec, msg, p.Out, p.Err)
	case p.JSON:
		return json.NewEncoder(p.Out).Encode(msg)
	case p.Format != "":
		_, err := fmt.Fprintln(p.Out, FormatMatch(p.Format, msg))
		return err
	default:
		_, err := fmt.Fprintln(p.Out, msg.Path)
		return err
	}
}

// ExecMatch runs the command template for msg. The template is split into
// fields before substitution so paths with spaces stay one argument.
func ExecMatch(ctx context.Context, template string, msg MatchMessage, stdout, stderr io.Writer) error {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return fmt.Errorf("empty command")
	}

	args := make([]string, len(fields))
	for i, f := range fields {
		args[i] = FormatMatch(f, msg)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("exec %q for %s: %w", strings.Join(args, " "), msg.Path, err)
	}
	return nil
}
