package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/watch"
)

// Table provides a simple table formatter.
type Table struct {
	w       *tabwriter.Writer
	headers []string
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return NewTableWriter(os.Stdout, headers...)
}

// NewTableWriter creates a table writing to a specific writer.
func NewTableWriter(out io.Writer, headers ...string) *Table {
	t := &Table{
		w:       tabwriter.NewWriter(out, 0, 0, 2, ' ', 0),
		headers: headers,
	}
	if len(headers) > 0 {
		_, _ = t.w.Write([]byte(strings.Join(headers, "\t") + "\n"))
	}
	return t
}

// Row adds a row to the table.
func (t *Table) Row(values ...string) {
	_, _ = t.w.Write([]byte(strings.Join(values, "\t") + "\n"))
}

// Flush writes the table output.
func (t *Table) Flush() {
	_ = t.w.Flush()
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// TruncateString truncates a string to maxLen runes, adding "..." if truncated.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// kindName is the singular lowercase name of a result kind.
func kindName(k core.SearchKind) string {
	switch k {
	case core.SearchArtists:
		return "artist"
	case core.SearchAlbums:
		return "album"
	default:
		return "track"
	}
}

// writeResults prints numbered results as a table.
func writeResults(out io.Writer, results []core.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No results.")
		return
	}
	t := NewTableWriter(out, "#", "TYPE", "ID", "TITLE", "BY")
	for i, r := range results {
		title := TruncateString(r.Title, 40)
		if r.Track != nil && !r.Track.Playable() {
			title += " (no preview)"
		}
		t.Row(fmt.Sprintf("%d", i+1), kindName(r.Kind), r.ID, title, TruncateString(r.Subtitle, 30))
	}
	t.Flush()
}

// writeTracks prints tracks as a numbered table.
func writeTracks(out io.Writer, tracks []core.Track) {
	if len(tracks) == 0 {
		fmt.Fprintln(out, "No tracks.")
		return
	}
	t := NewTableWriter(out, "#", "ID", "TITLE", "ARTIST", "LENGTH")
	for i, tr := range tracks {
		title := TruncateString(tr.Title, 40)
		if !tr.Playable() {
			title += " (no preview)"
		}
		t.Row(fmt.Sprintf("%d", i+1), tr.ID, title, TruncateString(tr.Artist, 30), formatLength(tr))
	}
	t.Flush()
}

// formatLength is the full track length, or "-" when unknown.
func formatLength(t core.Track) string {
	if t.Duration <= 0 {
		return "-"
	}
	return watch.FormatDuration(t.Duration)
}
