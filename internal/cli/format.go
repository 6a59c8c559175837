package cli

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/zuriciver-web/v0-technical-visit-form/internal/form"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printNotice writes a form notice as a two-line message.
func printNotice(w io.Writer, n *form.Notice) {
	mark := "✓"
	if n.Destructive {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s\n  %s\n", mark, n.Title, n.Description)
}

// reportResult is the JSON shape printed for a rendered or downloaded report.
type reportResult struct {
	File     string   `json:"file"`
	ReportID string   `json:"reportId,omitempty"`
	Pages    int      `json:"pages,omitempty"`
	Bytes    int      `json:"bytes"`
	Failed   []string `json:"failedPages,omitempty"`
}

// printReport writes the outcome of a render or submit.
func printReport(w io.Writer, r reportResult) error {
	if isJSON() {
		return printJSON(w, r)
	}
	fmt.Fprintf(w, "Wrote %s (%d bytes)\n", r.File, r.Bytes)
	if r.Pages > 0 {
		fmt.Fprintf(w, "  Pages:  %d\n", r.Pages)
	}
	if r.ReportID != "" {
		fmt.Fprintf(w, "  Report: %s\n", r.ReportID)
	}
	for _, title := range r.Failed {
		fmt.Fprintf(w, "  Warning: photo on page %q could not be loaded\n", title)
	}
	return nil
}
