package extupdate

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"go.yaml.in/yaml/v3"
)

// Output formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type styles struct {
	header  lipgloss.Style
	current lipgloss.Style
	update  lipgloss.Style
	unknown lipgloss.Style
	manual  lipgloss.Style
}

// newStyles binds the report palette to w so colors are dropped when w is
// not a terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		header:  r.NewStyle().Bold(true),
		current: r.NewStyle().Foreground(lipgloss.Color("2")),
		update:  r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		unknown: r.NewStyle().Faint(true),
		manual:  r.NewStyle().Foreground(lipgloss.Color("4")),
	}
}

// Write renders the report in the given format.
func Write(w io.Writer, r *Report, format string) error {
	switch format {
	case "", FormatText:
		WriteText(w, r)
		return nil
	case FormatJSON:
		out, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling report: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// WriteText prints the human-readable report.
func WriteText(w io.Writer, r *Report) {
	s := newStyles(w)

	fmt.Fprintln(w, s.header.Render("Marketplace extensions:"))
	if len(r.Marketplace) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, row := range r.Marketplace {
		name := row.ID
		if row.Current != "" {
			name += "@" + row.Current
		}
		fmt.Fprintf(w, "  - %s %s\n", name, s.latest(row))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, s.header.Render("Extensions installed from .vsix files (manual check required):"))
	if len(r.Standalone) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, row := range r.Standalone {
		fmt.Fprintf(w, "  - %s\n", s.manual.Render(row.ID))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, s.header.Render("GitHub .vsix downloads:"))
	if len(r.Hosted) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, row := range r.Hosted {
		fmt.Fprintf(w, "  - %s %s (current: %s) %s\n", row.Repo, row.ID, row.Current, s.latest(row))
	}

	fmt.Fprintln(w)
	if len(r.Outdated) == 0 {
		fmt.Fprintln(w, s.current.Render("All extensions are up to date!"))
		return
	}
	fmt.Fprintln(w, s.update.Render(fmt.Sprintf("%d update(s) available", len(r.Outdated))))
}

func (s styles) latest(row Row) string {
	switch row.Status {
	case StatusUpdate:
		text := fmt.Sprintf("(latest: %s)  <-- UPDATE AVAILABLE", row.Latest)
		if row.Change != "" {
			text += " [" + row.Change + "]"
		}
		return s.update.Render(text)
	case StatusUnknown:
		text := "(latest: unknown)"
		if row.Error != "" {
			text = fmt.Sprintf("(latest: unknown, %s)", row.Error)
		}
		return s.unknown.Render(text)
	case StatusUnpinned:
		return s.unknown.Render(fmt.Sprintf("(unpinned, latest: %s)", row.Latest))
	default:
		return s.current.Render(fmt.Sprintf("(latest: %s)", row.Latest))
	}
}
