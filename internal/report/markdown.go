package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/reconkit/orgscan/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxEntriesShown caps the entry table in search reports. Full data is
// always available through the JSON writer and the history database.
const maxEntriesShown = 100

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// titler renders stage and backend identifiers as headings.
	titler cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		titler:     cases.Title(language.English),
	}
}

// WriteBatch outputs the batch report in Markdown format.
func (w *MarkdownWriter) WriteBatch(report *model.BatchReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeBatchHeader(md, report)
	w.writeOutcomeChart(md, report)
	w.writeBatchAlert(md, report)
	for i := range report.Outcomes {
		w.writeTargetSection(md, &report.Outcomes[i])
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeBatchHeader writes the batch summary table.
func (w *MarkdownWriter) writeBatchHeader(md *markdown.Markdown, report *model.BatchReport) {
	md.H1("Enterprise Collection Report")
	md.PlainText("")

	status := "✅ Complete"
	if report.Cancelled {
		status = "⚠️ Interrupted (partial results)"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Targets", strconv.Itoa(report.Total)},
			{"Done", strconv.Itoa(report.Done)},
			{"Partial", strconv.Itoa(report.Partial)},
			{"Failed", strconv.Itoa(report.Failed)},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.FinishedAt.Sub(report.StartedAt).Round(1e9).String()},
			{"Status", status},
		},
	})
	md.PlainText("")
}

// writeOutcomeChart writes a mermaid pie chart of terminal outcomes.
func (w *MarkdownWriter) writeOutcomeChart(md *markdown.Markdown, report *model.BatchReport) {
	if len(report.Outcomes) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Target Outcome Distribution"),
		piechart.WithShowData(true),
	)
	if report.Done > 0 {
		chart.LabelAndIntValue("Done", uint64(report.Done))
	}
	if report.Partial > 0 {
		chart.LabelAndIntValue("Partial", uint64(report.Partial))
	}
	if report.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(report.Failed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeBatchAlert writes an appropriate alert for the batch outcome.
func (w *MarkdownWriter) writeBatchAlert(md *markdown.Markdown, report *model.BatchReport) {
	switch {
	case report.Cancelled:
		md.Importantf("The run was interrupted: %d of %d target(s) completed.",
			len(report.Outcomes), report.Total)
	case report.Failed > 0:
		md.Warningf("%d target(s) failed completely. Check session credentials and retry.",
			report.Failed)
	case report.Partial > 0:
		md.Notef("%d target(s) finished with partial data.", report.Partial)
	default:
		md.Tip("All targets collected successfully.")
	}
	md.PlainText("")
}

// writeTargetSection writes one target's collected data and stage trail.
func (w *MarkdownWriter) writeTargetSection(md *markdown.Markdown, outcome *model.TargetOutcome) {
	md.H2(outcome.Target.Name)
	md.PlainText("")
	md.PlainText("Status: " + outcomeText(outcome.Status))
	md.PlainText("")

	if outcome.Report == nil {
		return
	}
	r := outcome.Report

	w.writeBasicInfo(md, r)
	w.writeICPRecords(md, r)
	w.writeAssets(md, r)
	w.writeRegistrations(md, r)
	w.writeStageTrail(md, r)
}

// writeBasicInfo writes the registry basics table.
func (w *MarkdownWriter) writeBasicInfo(md *markdown.Markdown, r *model.OrgReport) {
	rows := [][]string{}
	add := func(name, value string) {
		if value != "" {
			rows = append(rows, []string{name, value})
		}
	}
	add("Legal Person", r.BasicInfo.LegalPerson)
	add("Address", r.BasicInfo.Address)
	add("Registered Capital", r.BasicInfo.RegCapital)
	add("Credit Code", r.BasicInfo.CreditCode)
	add("Email", r.BasicInfo.Email)
	add("Website", r.BasicInfo.Website)
	add("Telephone", r.BasicInfo.Telephone)
	add("Industry", industryText(r.IndustryInfo))
	if len(rows) == 0 {
		return
	}

	md.H3("Company Profile")
	md.PlainText("")
	md.Table(markdown.TableSet{Header: []string{"Field", "Value"}, Rows: rows})
	md.PlainText("")
}

// writeICPRecords writes the web-filing table.
func (w *MarkdownWriter) writeICPRecords(md *markdown.Markdown, r *model.OrgReport) {
	if len(r.ICPRecords) == 0 {
		return
	}

	md.H3("Web Filings")
	md.PlainText("")
	rows := make([][]string, len(r.ICPRecords))
	for i, rec := range r.ICPRecords {
		rows[i] = []string{
			rec.SiteName,
			rec.Licence,
			strings.Join(rec.Domains, ", "),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Site", "Licence", "Domains"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeAssets writes apps, messaging accounts, and contact phones.
func (w *MarkdownWriter) writeAssets(md *markdown.Markdown, r *model.OrgReport) {
	if len(r.Apps) > 0 {
		md.H3("Mobile Apps")
		md.PlainText("")
		md.BulletList(r.Apps...)
		md.PlainText("")
	}
	if len(r.WechatAccounts) > 0 {
		md.H3("Official Accounts")
		md.PlainText("")
		items := make([]string, len(r.WechatAccounts))
		for i, a := range r.WechatAccounts {
			items[i] = a.Name
			if a.ID != "" {
				items[i] += " (`" + a.ID + "`)"
			}
		}
		md.BulletList(items...)
		md.PlainText("")
	}
	if len(r.ContactPhones) > 0 {
		md.H3("Contacts")
		md.PlainText("")
		md.BulletList(r.ContactPhones...)
		md.PlainText("")
	}
	if len(r.EmployeeEmails) > 0 {
		md.H3("Employee Emails")
		md.PlainText("")
		md.BulletList(r.EmployeeEmails...)
		md.PlainText("")
	}
}

// writeRegistrations writes the WHOIS enrichment table.
func (w *MarkdownWriter) writeRegistrations(md *markdown.Markdown, r *model.OrgReport) {
	if len(r.Registrations) == 0 {
		return
	}

	md.H3("Domain Registrations")
	md.PlainText("")
	rows := make([][]string, len(r.Registrations))
	for i, reg := range r.Registrations {
		rows[i] = []string{
			"`" + reg.Domain + "`", reg.Registrar, reg.CreatedDate, reg.ExpiresDate,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Registrar", "Created", "Expires"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeStageTrail writes the per-stage execution table.
func (w *MarkdownWriter) writeStageTrail(md *markdown.Markdown, r *model.OrgReport) {
	if len(r.Stages) == 0 {
		return
	}

	md.H3("Stage Trail")
	md.PlainText("")
	rows := make([][]string, len(r.Stages))
	for i, s := range r.Stages {
		message := s.Message
		if message == "" {
			message = "-"
		}
		rows[i] = []string{
			w.titler.String(strings.ReplaceAll(s.Stage, "-", " ")),
			string(s.Status),
			message,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Status", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

// WriteSearch outputs the search report in Markdown format.
func (w *MarkdownWriter) WriteSearch(report *model.SearchReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Asset Search Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Query", "`" + report.Query + "`"},
			{"Backends Queried", strconv.Itoa(len(report.Results))},
			{"Backends Succeeded", strconv.Itoa(report.Succeeded())},
			{"Unique Entries", strconv.Itoa(len(report.Entries))},
			{"Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	w.writeBackendResults(md, report)
	w.writeEntryChart(md, report)
	w.writeEntries(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeBackendResults writes the per-backend outcome table.
func (w *MarkdownWriter) writeBackendResults(md *markdown.Markdown, report *model.SearchReport) {
	if len(report.Results) == 0 {
		return
	}

	md.H2("Backend Results")
	md.PlainText("")
	rows := make([][]string, len(report.Results))
	for i, r := range report.Results {
		status := "✅ OK"
		detail := "`" + r.Query + "`"
		if !r.Success {
			status = "❌ Failed"
			detail = r.Error
		}
		rows[i] = []string{
			w.titler.String(r.Backend),
			status,
			strconv.Itoa(len(r.Entries)),
			strconv.Itoa(r.Total),
			truncateString(detail, 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Backend", "Status", "Returned", "Total", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeEntryChart writes a mermaid pie chart of entry counts per backend.
func (w *MarkdownWriter) writeEntryChart(md *markdown.Markdown, report *model.SearchReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Entries by Backend"),
		piechart.WithShowData(true),
	)
	var hasData bool
	for _, r := range report.Results {
		if r.Success && len(r.Entries) > 0 {
			chart.LabelAndIntValue(w.titler.String(r.Backend), uint64(len(r.Entries)))
			hasData = true
		}
	}
	if !hasData {
		return
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeEntries writes the merged entry table.
func (w *MarkdownWriter) writeEntries(md *markdown.Markdown, report *model.SearchReport) {
	md.H2("Entries")
	md.PlainText("")
	if len(report.Entries) == 0 {
		md.PlainText("No entries matched the query.")
		md.PlainText("")
		return
	}

	entries := report.Entries
	if len(entries) > maxEntriesShown {
		entries = entries[:maxEntriesShown]
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		location := strings.TrimSpace(e.Country + " " + e.City)
		rows[i] = []string{
			e.IP,
			strconv.Itoa(e.Port),
			truncateString(e.Host, 40),
			truncateString(e.Title, 30),
			truncateString(e.Server, 20),
			location,
			e.Backend,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"IP", "Port", "Host", "Title", "Server", "Location", "Source"},
		Rows:   rows,
	})
	if len(report.Entries) > maxEntriesShown {
		md.PlainTextf("... and %d more entries (see JSON output).",
			len(report.Entries)-maxEntriesShown)
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by orgscan*")
}

// outcomeText renders a terminal outcome with a visual indicator.
func outcomeText(o model.Outcome) string {
	switch o {
	case model.OutcomeDone:
		return "✅ Done"
	case model.OutcomePartial:
		return "🟡 Partial"
	case model.OutcomeFailed:
		return "❌ Failed"
	default:
		return string(o)
	}
}

// industryText flattens the industry classification into one line.
func industryText(info model.IndustryInfo) string {
	parts := []string{}
	for _, p := range []string{info.Category, info.Subcategory, info.Group, info.Detail} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " / ")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
