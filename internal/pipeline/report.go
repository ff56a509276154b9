package pipeline

import (
	"fmt"
	"io"
)

// FileResult lists the problems found in one input file.
type FileResult struct {
	Filename string   `json:"file"`
	Errors   []string `json:"errors,omitempty"`
}

// OK reports whether the file passed every check.
func (f FileResult) OK() bool {
	return len(f.Errors) == 0
}

// Report is the per-file outcome of a run, in input order.
type Report struct {
	Files   []FileResult `json:"files"`
	Valid   int          `json:"valid"`
	Invalid int          `json:"invalid"`
}

// Failures returns only the files with errors.
func (r *Report) Failures() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if !f.OK() {
			out = append(out, f)
		}
	}
	return out
}

// Print writes one line per file followed by a summary, e.g.
//
//	✅ data/merchants/acme.json
//	❌ data/merchants/broken.json
//	   - url must be HTTPS
func (r *Report) Print(w io.Writer, dir string) {
	for _, f := range r.Files {
		if f.OK() {
			fmt.Fprintf(w, "✅ %s/%s\n", dir, f.Filename)
			continue
		}
		fmt.Fprintf(w, "❌ %s/%s\n", dir, f.Filename)
		for _, e := range f.Errors {
			fmt.Fprintf(w, "   - %s\n", e)
		}
	}
	fmt.Fprintln(w)

	if r.Invalid > 0 {
		fmt.Fprintf(w, "❌ Summary: %d valid, %d invalid\n", r.Valid, r.Invalid)
		return
	}
	fmt.Fprintf(w, "✅ Summary: %d merchants validated\n", r.Valid)
}

// ValidationError is returned by Run when any file fails. Nothing from the
// batch should be published.
type ValidationError struct {
	Report *Report
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d valid, %d invalid", e.Report.Valid, e.Report.Invalid)
}
