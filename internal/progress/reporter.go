package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides progress feedback during an analysis run. The scan total
// is unknown up front, so reporters count files as they stream past.
type Reporter interface {
	// Stage marks the start of a pipeline stage.
	Stage(name string)
	// File reports one scanned file.
	File(path string)
	// Finish closes the report with a short summary line.
	Finish(summary string)
}

// NewReporter returns a TerminalReporter in interactive terminals and a
// CIReporter when a CI environment is detected.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{}
	}
	return &TerminalReporter{}
}

// TerminalReporter drives an indeterminate progress spinner.
type TerminalReporter struct {
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Stage(name string) {
	if r.bar == nil {
		r.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription(name),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		return
	}
	r.bar.Describe(name)
}

func (r *TerminalReporter) File(string) {
	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}

func (r *TerminalReporter) Finish(summary string) {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	if summary != "" {
		fmt.Fprintln(os.Stderr, summary)
	}
}

// CIReporter prints line-by-line progress suitable for CI logs.
type CIReporter struct {
	files int
}

func (r *CIReporter) Stage(name string) {
	fmt.Fprintf(os.Stderr, "==> %s\n", name)
}

func (r *CIReporter) File(path string) {
	r.files++
	fmt.Fprintf(os.Stderr, "  [%d] %s\n", r.files, path)
}

func (r *CIReporter) Finish(summary string) {
	if summary != "" {
		fmt.Fprintln(os.Stderr, summary)
	}
}

// NopReporter discards all progress events.
type NopReporter struct{}

func (NopReporter) Stage(string)  {}
func (NopReporter) File(string)   {}
func (NopReporter) Finish(string) {}
