// Package main writes a single markdown file documenting every lambdahttp CLI command.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/heavens/lambdahttp/cmd/lambdahttp/cmd"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func main() {
	var outFile string
	flag.StringVar(&outFile, "out", "./docs/CLI.md", "output file for generated markdown")
	flag.Parse()

	if outFile == "" {
		log.Fatal("error: output file is required")
	}

	if err := writeFile(outFile); err != nil {
		log.Fatalf("error: %s", err)
	}
}

func writeFile(outFile string) error {
	if err := os.MkdirAll(filepath.Dir(outFile), 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var buf bytes.Buffer
	root := cmd.RootCmd()
	root.DisableAutoGenTag = true
	if err := render(&buf, root); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Clean(outFile), buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	log.Printf("generated CLI documentation in %s", outFile)
	return nil
}

func render(w io.Writer, root *cobra.Command) error {
	fmt.Fprintln(w, "# lambdahttp CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Every command, its flags and examples.")
	fmt.Fprintln(w)

	return renderCommand(w, root, 2)
}

func renderCommand(w io.Writer, c *cobra.Command, level int) error {
	if !c.IsAvailableCommand() || c.IsAdditionalHelpTopicCommand() {
		return nil
	}

	fmt.Fprintf(w, "%s %s\n\n", strings.Repeat("#", level), c.CommandPath())
	if c.Short != "" {
		fmt.Fprintf(w, "%s\n\n", c.Short)
	}
	if c.Long != "" && c.Long != c.Short {
		fmt.Fprintf(w, "%s\n\n", c.Long)
	}
	if c.Example != "" {
		fmt.Fprintf(w, "**Examples:**\n\n```bash\n%s\n```\n\n", c.Example)
	}

	var buf bytes.Buffer
	if err := doc.GenMarkdown(c, &buf); err != nil {
		return fmt.Errorf("generating markdown for %s: %w", c.CommandPath(), err)
	}
	if options := optionsSection(buf.String()); options != "" {
		fmt.Fprintf(w, "%s\n\n", options)
	}

	subcommands := slices.Clone(c.Commands())
	slices.SortFunc(subcommands, func(a, b *cobra.Command) int {
		return strings.Compare(a.Name(), b.Name())
	})
	for _, sub := range subcommands {
		if err := renderCommand(w, sub, level+1); err != nil {
			return err
		}
	}

	return nil
}

// optionsSection extracts the flag tables cobra generates, without the See Also links.
func optionsSection(markdown string) string {
	start := strings.Index(markdown, "### Options")
	if start < 0 {
		return ""
	}

	section := markdown[start:]
	if end := strings.Index(section, "### SEE ALSO"); end > 0 {
		section = section[:end]
	}

	return strings.TrimSpace(section)
}
