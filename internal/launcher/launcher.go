// Package launcher abstracts the menu program: present choices, get back a
// selection or a cancellation. The only real implementation drives rofi;
// tests substitute scripted fakes.
package launcher

// Options tune a single menu invocation. The zero value means "let the
// launcher decide".
type Options struct {
	Lines     int    // visible rows; 0 leaves the launcher default
	Highlight int    // row to mark active, -1 for none
	Message   string // free-form text under the prompt
	Width     int    // window width in characters; 0 leaves the default
	Font      string // font override for this invocation
	NoCustom  bool   // reject input that matches no item
}

// Launcher presents choices and prompts. Every method reports cancellation
// through its boolean; cancellation is never an error.
type Launcher interface {
	// Choose shows items and returns the selected line. ok is false when
	// the user dismissed the menu.
	Choose(items []string, prompt string, opts Options) (selection string, ok bool)
	// Input asks for one line of free text.
	Input(prompt string) (string, bool)
	// Password asks for a masked credential. hint is appended to the
	// prompt, e.g. an attempt counter.
	Password(hint string) (string, bool)
	// Confirm asks a yes/no question; dismissal counts as no.
	Confirm(question string) bool
	// ShowMessage displays read-only content until dismissed.
	ShowMessage(title string, lines []string, message string)
}
