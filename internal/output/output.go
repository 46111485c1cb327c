// Package output provides formatted terminal output for the lambdahttp CLI:
// colored status lines, tables and JSON or YAML rendering of envelopes.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/heavens/lambdahttp/internal/constants"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

var (
	// Colors and styles
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	gray   = color.New(color.FgHiBlack)
	bold   = color.New(color.Bold)

	// Stdout is the output writer for rendered documents (can be overridden for testing).
	Stdout io.Writer = os.Stdout
	// Stderr is the output writer for status messages (can be overridden for testing).
	Stderr io.Writer = os.Stderr

	ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

func init() {
	// Disable colors if not TTY or NO_COLOR is set
	if os.Getenv("NO_COLOR") != "" || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
}

// visibleWidth returns the number of visible characters, ignoring ANSI escape codes
func visibleWidth(s string) int {
	return utf8.RuneCountInString(ansiRegexp.ReplaceAllString(s, ""))
}

// Successf prints a success message with a checkmark (to stderr)
// Example: ✓ Detected origin apigw-v2
func Successf(format string, a ...any) {
	_, _ = fmt.Fprintf(Stderr, green.Sprint("✓")+" "+format+"\n", a...)
}

// Infof prints an informational message with an arrow (to stderr)
// Example: → Invoking function hello...
func Infof(format string, a ...any) {
	_, _ = fmt.Fprintf(Stderr, cyan.Sprint("→")+" "+format+"\n", a...)
}

// Warningf prints a warning message with a warning symbol (to stderr)
func Warningf(format string, a ...any) {
	_, _ = fmt.Fprintf(Stderr, yellow.Sprint("⚠")+" "+format+"\n", a...)
}

// Errorf prints an error message with an X symbol (to stderr)
// Example: ✗ Malformed trigger event: unexpected end of JSON input
func Errorf(format string, a ...any) {
	_, _ = fmt.Fprintf(Stderr, red.Sprint("✗")+" "+format+"\n", a...)
}

// Header prints a section header with a separator line (to stderr)
func Header(text string) {
	_, _ = fmt.Fprintln(Stderr)
	_, _ = fmt.Fprintln(Stderr, bold.Sprint(text))
	_, _ = fmt.Fprintln(Stderr, gray.Sprint(strings.Repeat("━", constants.HeaderSeparatorLength)))
}

// KeyValue prints a key-value pair with indentation (to stderr)
func KeyValue(key, value string) {
	_, _ = fmt.Fprintf(Stderr, "  %s: %s\n", gray.Sprint(key), value)
}

// Blank prints a blank line (to stderr)
func Blank() {
	_, _ = fmt.Fprintln(Stderr)
}

// Status renders an HTTP status code colored by class.
func Status(code int) string {
	text := fmt.Sprintf("%d", code)
	switch {
	case code >= 500:
		return red.Sprint(text)
	case code >= 400:
		return yellow.Sprint(text)
	case code >= 300:
		return cyan.Sprint(text)
	default:
		return green.Sprint(text)
	}
}

// Table prints a table with headers (to stderr)
// Example:
// Header          Value
// ──────          ─────
// content-type    application/json
func Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = visibleWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && visibleWidth(cell) > widths[i] {
				widths[i] = visibleWidth(cell)
			}
		}
	}

	for i, h := range headers {
		_, _ = fmt.Fprint(Stderr, pad(bold.Sprint(h), widths[i])+"  ")
	}
	_, _ = fmt.Fprintln(Stderr)

	for i := range headers {
		_, _ = fmt.Fprint(Stderr, gray.Sprint(strings.Repeat("─", widths[i]))+"  ")
	}
	_, _ = fmt.Fprintln(Stderr)

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				_, _ = fmt.Fprint(Stderr, pad(cell, widths[i])+"  ")
			}
		}
		_, _ = fmt.Fprintln(Stderr)
	}
}

func pad(s string, width int) string {
	if n := width - visibleWidth(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// Render writes v to stdout in the given format. Values are encoded through their JSON
// form first so that both formats use the wire field names.
func Render(format constants.OutputFormat, v any) error {
	out, err := Marshal(format, v)
	if err != nil {
		return err
	}
	_, err = Stdout.Write(out)
	return err
}

// Marshal encodes v as indented JSON or as YAML.
func Marshal(format constants.OutputFormat, v any) ([]byte, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}

	switch format {
	case constants.OutputJSON, "":
		var buf bytes.Buffer
		if err = json.Indent(&buf, encoded, "", "  "); err != nil {
			return nil, fmt.Errorf("failed to indent output: %w", err)
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	case constants.OutputYAML:
		// JSON is valid YAML; decoding into a node keeps the field order.
		var node yaml.Node
		if err = yaml.Unmarshal(encoded, &node); err != nil {
			return nil, fmt.Errorf("failed to convert output to YAML: %w", err)
		}
		resetStyle(&node)

		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err = enc.Encode(&node); err != nil {
			return nil, fmt.Errorf("failed to encode YAML output: %w", err)
		}
		if err = enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode YAML output: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// resetStyle switches flow mappings and quoted scalars to block style.
func resetStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		resetStyle(child)
	}
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		fileInfo, err := f.Stat()
		if err != nil {
			return false
		}
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return false
}
