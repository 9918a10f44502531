package seeder

import (
	"io"
	"strings"

	"github.com/fatih/color"
)

// Reporter prints seeding progress. A nil Reporter or one writing to
// io.Discard is silent.
type Reporter struct {
	w      io.Writer
	cyan   *color.Color
	green  *color.Color
	yellow *color.Color
	red    *color.Color
}

func NewReporter(w io.Writer) *Reporter {
	if w == nil {
		w = io.Discard
	}
	return &Reporter{
		w:      w,
		cyan:   color.New(color.FgCyan),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
	}
}

func (r *Reporter) Start(runID string, factories int) {
	if r == nil {
		return
	}
	r.cyan.Fprintf(r.w, "🌱 Starting seed run %s (%d factories)...\n", runID, factories)
}

func (r *Reporter) Pass(n int, pending []string) {
	if r == nil {
		return
	}
	r.cyan.Fprintf(r.w, "🔁 Pass %d: %s\n", n, strings.Join(pending, ", "))
}

func (r *Reporter) Resolved(collection string, count int) {
	if r == nil {
		return
	}
	r.green.Fprintf(r.w, "  ✅ %s seeded (%d entities)\n", collection, count)
}

func (r *Reporter) Blocked(name string, missing *DependencyMissingError) {
	if r == nil {
		return
	}
	r.yellow.Fprintf(r.w, "  ⏳ %s waiting on %s\n", name, missing.Path())
}

func (r *Reporter) Failed(err error) {
	if r == nil {
		return
	}
	r.red.Fprintf(r.w, "❌ %v\n", err)
}

func (r *Reporter) Done(result *Result) {
	if r == nil {
		return
	}
	r.green.Fprintf(r.w, "\n✅ Seeded %d entities in %d collections over %d passes\n",
		result.Count(), len(result.Refs), result.Passes)
}
