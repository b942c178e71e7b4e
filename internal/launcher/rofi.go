package launcher

import (
	"os/exec"
	"strconv"
	"strings"
)

// Rofi drives the rofi binary in dmenu mode.
type Rofi struct {
	Font     string
	Position int // rofi -location, 0-8
	XOffset  int
	YOffset  int
}

// run invokes rofi with the base dmenu arguments plus extra, feeding items
// on stdin. A non-zero exit or empty selection reads as cancellation.
func (r *Rofi) run(items []string, prompt string, extra []string) (string, bool) {
	args := []string{
		"-dmenu",
		"-p", prompt,
		"-font", r.Font,
		"-location", strconv.Itoa(r.Position),
		"-xoffset", strconv.Itoa(r.XOffset),
		"-yoffset", strconv.Itoa(r.YOffset),
	}
	args = append(args, extra...)

	cmd := exec.Command("rofi", args...)
	cmd.Stdin = strings.NewReader(strings.Join(items, "\n"))
	out, err := cmd.Output()
	if err != nil {
		return "", false // Esc or rofi failure
	}
	selection := strings.TrimSpace(string(out))
	return selection, selection != ""
}

// buildExtra translates Options into rofi arguments.
func buildExtra(opts Options) []string {
	var extra []string
	if opts.Lines > 0 {
		extra = append(extra, "-lines", strconv.Itoa(opts.Lines))
	}
	if opts.Highlight >= 0 {
		extra = append(extra, "-a", strconv.Itoa(opts.Highlight))
	}
	if opts.Message != "" {
		extra = append(extra, "-mesg", opts.Message)
	}
	if opts.Width != 0 {
		extra = append(extra, "-width", strconv.Itoa(opts.Width))
	}
	if opts.Font != "" {
		extra = append(extra, "-font", opts.Font)
	}
	if opts.NoCustom {
		extra = append(extra, "-no-custom")
	}
	return extra
}

func (r *Rofi) Choose(items []string, prompt string, opts Options) (string, bool) {
	return r.run(items, prompt, buildExtra(opts))
}

func (r *Rofi) Input(prompt string) (string, bool) {
	return r.run(nil, prompt, []string{"-lines", "1"})
}

func (r *Rofi) Password(hint string) (string, bool) {
	prompt := "🔒 password"
	if hint != "" {
		prompt += " (" + hint + ")"
	}
	return r.run(nil, prompt+": ", []string{"-password", "-lines", "0"})
}

func (r *Rofi) Confirm(question string) bool {
	selection, ok := r.run([]string{"yes", "no"}, question, []string{"-lines", "2", "-no-custom"})
	return ok && selection == "yes"
}

func (r *Rofi) ShowMessage(title string, lines []string, message string) {
	extra := []string{"-no-custom"}
	if message != "" {
		extra = append(extra, "-mesg", message)
	}
	r.run(lines, title, extra)
}
