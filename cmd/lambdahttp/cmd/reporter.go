package cmd

import (
	"github.com/heavens/lambdahttp/internal/constants"
	"github.com/heavens/lambdahttp/internal/output"
)

// Reporter is what the detect and invoke services print through. Status lines and
// tables go to stderr; Render writes the envelope document to stdout.
type Reporter interface {
	Infof(format string, a ...any)
	Successf(format string, a ...any)
	Warningf(format string, a ...any)
	Header(text string)
	KeyValue(key, value string)
	Table(headers []string, rows [][]string)
	Blank()
	Render(format constants.OutputFormat, v any) error
}

// terminal reports through the output package.
type terminal struct{}

// NewTerminalReporter returns the Reporter used by the CLI commands.
func NewTerminalReporter() Reporter {
	return terminal{}
}

func (terminal) Infof(format string, a ...any)    { output.Infof(format, a...) }
func (terminal) Successf(format string, a ...any) { output.Successf(format, a...) }
func (terminal) Warningf(format string, a ...any) { output.Warningf(format, a...) }
func (terminal) Header(text string)               { output.Header(text) }
func (terminal) KeyValue(key, value string)       { output.KeyValue(key, value) }
func (terminal) Table(headers []string, rows [][]string) {
	output.Table(headers, rows)
}
func (terminal) Blank() { output.Blank() }

func (terminal) Render(format constants.OutputFormat, v any) error {
	return output.Render(format, v)
}
