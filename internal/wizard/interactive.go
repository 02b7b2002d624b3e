// Package wizard holds the interactive prompts used when a command is run
// without enough arguments.
package wizard

import (
	"os"

	"golang.org/x/term"

	"github.com/tessro/encore/internal/core"
)

// Interactive gates prompts on a terminal being attached.
type Interactive struct {
	enabled  bool
	terminal func() bool
}

// NewInteractive returns a prompter that checks stdout for a terminal.
func NewInteractive() *Interactive {
	return &Interactive{enabled: true, terminal: IsTerminal}
}

// SetEnabled turns prompting on or off, e.g. for --json output.
func (i *Interactive) SetEnabled(enabled bool) {
	i.enabled = enabled
}

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// CanInteract reports whether prompts may be shown.
func (i *Interactive) CanInteract() bool {
	return i.enabled && i.terminal()
}

// PromptSearch runs the search wizard. It returns nil when prompting is
// unavailable or the user quits without choosing.
func (i *Interactive) PromptSearch(search SearchFunc) (*core.SearchResult, error) {
	if !i.CanInteract() || search == nil {
		return nil, nil
	}
	return RunSearch(search)
}

// PromptTrack asks the user to choose one of tracks.
func (i *Interactive) PromptTrack(title string, tracks []core.Track) (*core.Track, error) {
	if !i.CanInteract() || len(tracks) == 0 {
		return nil, nil
	}
	return RunTrackPicker(title, tracks)
}

// NeedsQuery reports whether a command was given no query words.
func NeedsQuery(args []string) bool {
	return len(args) == 0
}
