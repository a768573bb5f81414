package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/reconkit/orgscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no data are shown.
	showEmpty bool

	// verbose enables the per-stage trail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with the stage trail.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteBatch outputs the batch report in human-readable format.
func (w *SimpleWriter) WriteBatch(report *model.BatchReport) (int, error) {
	var sb strings.Builder

	w.writeRule(&sb, "=")
	sb.WriteString("                    ENTERPRISE COLLECTION REPORT\n")
	w.writeRule(&sb, "=")
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Targets:   %d\n", report.Total))
	sb.WriteString(fmt.Sprintf("Done:      %d\n", report.Done))
	sb.WriteString(fmt.Sprintf("Partial:   %d\n", report.Partial))
	sb.WriteString(fmt.Sprintf("Failed:    %d\n", report.Failed))
	sb.WriteString(fmt.Sprintf("Started:   %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	if report.Cancelled {
		sb.WriteString("Status:    INTERRUPTED (partial results)\n")
	} else {
		sb.WriteString("Status:    Complete\n")
	}
	sb.WriteString("\n")

	for i := range report.Outcomes {
		w.writeTarget(&sb, &report.Outcomes[i])
	}

	w.writeRule(&sb, "=")
	return w.output.Write([]byte(sb.String()))
}

// writeTarget writes one target's summary block.
func (w *SimpleWriter) writeTarget(sb *strings.Builder, outcome *model.TargetOutcome) {
	w.writeRule(sb, "-")
	sb.WriteString(fmt.Sprintf("%s [%s]\n", outcome.Target.Name, strings.ToUpper(string(outcome.Status))))
	w.writeRule(sb, "-")
	sb.WriteString("\n")

	if outcome.Message != "" {
		sb.WriteString(fmt.Sprintf("  %s\n\n", outcome.Message))
	}
	r := outcome.Report
	if r == nil {
		return
	}

	w.writeField(sb, "Legal person", r.BasicInfo.LegalPerson)
	w.writeField(sb, "Credit code", r.BasicInfo.CreditCode)
	w.writeField(sb, "Website", r.BasicInfo.Website)
	w.writeField(sb, "Email", r.BasicInfo.Email)
	w.writeField(sb, "Industry", industryText(r.IndustryInfo))

	if len(r.ICPRecords) > 0 || w.showEmpty {
		sb.WriteString(fmt.Sprintf("  Web filings: %d\n", len(r.ICPRecords)))
		for _, rec := range r.ICPRecords {
			sb.WriteString(fmt.Sprintf("    [+] %s (%s)\n", strings.Join(rec.Domains, ", "), rec.Licence))
		}
	}
	if len(r.Apps) > 0 {
		sb.WriteString(fmt.Sprintf("  Apps: %s\n", strings.Join(r.Apps, ", ")))
	}
	if len(r.ContactPhones) > 0 {
		sb.WriteString(fmt.Sprintf("  Contacts: %s\n", strings.Join(r.ContactPhones, ", ")))
	}

	if w.verbose && len(r.Stages) > 0 {
		sb.WriteString("\n  Stage trail:\n")
		for _, s := range r.Stages {
			line := fmt.Sprintf("    %-14s %s", s.Stage, s.Status)
			if s.Message != "" {
				line += " - " + s.Message
			}
			sb.WriteString(line + "\n")
		}
	}
	sb.WriteString("\n")
}

// WriteSearch outputs the search report in human-readable format.
func (w *SimpleWriter) WriteSearch(report *model.SearchReport) (int, error) {
	var sb strings.Builder

	w.writeRule(&sb, "=")
	sb.WriteString("                       ASSET SEARCH REPORT\n")
	w.writeRule(&sb, "=")
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Query:     %s\n", report.Query))
	sb.WriteString(fmt.Sprintf("Backends:  %d queried, %d succeeded\n", len(report.Results), report.Succeeded()))
	sb.WriteString(fmt.Sprintf("Entries:   %d unique\n", len(report.Entries)))
	sb.WriteString("\n")

	for _, r := range report.Results {
		if r.Success {
			sb.WriteString(fmt.Sprintf("  [+] %-8s %d returned, %d total\n", r.Backend, len(r.Entries), r.Total))
		} else {
			sb.WriteString(fmt.Sprintf("  [!] %-8s %s\n", r.Backend, r.Error))
		}
	}
	sb.WriteString("\n")

	shown := report.Entries
	if len(shown) > maxEntriesShown {
		shown = shown[:maxEntriesShown]
	}
	for i, e := range shown {
		host := e.Host
		if host == "" {
			host = "-"
		}
		sb.WriteString(fmt.Sprintf("  %3d. %-15s %-6d %-30s %s\n",
			i+1, e.IP, e.Port, truncateString(host, 30), truncateString(e.Title, 25)))
	}
	if len(report.Entries) > maxEntriesShown {
		sb.WriteString(fmt.Sprintf("  ... %d more entries\n", len(report.Entries)-maxEntriesShown))
	}
	sb.WriteString("\n")

	w.writeRule(&sb, "=")
	return w.output.Write([]byte(sb.String()))
}

// writeField writes one labeled value, skipping empties unless showEmpty.
func (w *SimpleWriter) writeField(sb *strings.Builder, label, value string) {
	if value == "" && !w.showEmpty {
		return
	}
	sb.WriteString(fmt.Sprintf("  %-13s %s\n", label+":", value))
}

// writeRule writes a 70-column separator line.
func (w *SimpleWriter) writeRule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n")
}
