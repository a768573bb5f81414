package query

import (
	"fmt"
	"regexp"
	"strings"
)

// Field is one recognized semantic field of a unified query.
type Field string

const (
	FieldIP      Field = "ip"
	FieldPort    Field = "port"
	FieldDomain  Field = "domain"
	FieldTitle   Field = "title"
	FieldBody    Field = "body"
	FieldServer  Field = "server"
	FieldCountry Field = "country"
)

// fieldOrder fixes rendering order so translation is deterministic.
var fieldOrder = []Field{
	FieldIP, FieldPort, FieldDomain, FieldTitle, FieldBody, FieldServer, FieldCountry,
}

// Unified is one backend-independent query. Recognized semantics live
// in typed fields; anything unrecognized is carried as raw terms and
// passed through only to free-form-tolerant backends.
type Unified struct {
	IP      string
	Port    string
	Domain  string
	Title   string
	Body    string
	Server  string
	Country string

	// Raw holds unrecognized terms verbatim.
	Raw []string
}

// IsZero reports whether the query carries nothing at all.
func (q Unified) IsZero() bool {
	return q.IP == "" && q.Port == "" && q.Domain == "" && q.Title == "" &&
		q.Body == "" && q.Server == "" && q.Country == "" && len(q.Raw) == 0
}

// value returns the typed field's value.
func (q Unified) value(f Field) string {
	switch f {
	case FieldIP:
		return q.IP
	case FieldPort:
		return q.Port
	case FieldDomain:
		return q.Domain
	case FieldTitle:
		return q.Title
	case FieldBody:
		return q.Body
	case FieldServer:
		return q.Server
	case FieldCountry:
		return q.Country
	default:
		return ""
	}
}

var (
	ipPattern     = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	domainPattern = regexp.MustCompile(`^[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	portPattern   = regexp.MustCompile(`^\d{1,5}$`)
	clausePattern = regexp.MustCompile(`^([a-zA-Z._]+)\s*[=:]\s*(.+)$`)
)

// fieldAliases maps the field spellings users bring from any backend's
// native syntax onto the unified fields.
var fieldAliases = map[string]Field{
	"ip":            FieldIP,
	"port":          FieldPort,
	"ip.port":       FieldPort,
	"domain":        FieldDomain,
	"host":          FieldDomain,
	"hostname":      FieldDomain,
	"domain.suffix": FieldDomain,
	"title":         FieldTitle,
	"web.title":     FieldTitle,
	"body":          FieldBody,
	"web.body":      FieldBody,
	"response":      FieldBody,
	"server":        FieldServer,
	"web.server":    FieldServer,
	"header.server": FieldServer,
	"country":       FieldCountry,
	"ip.country":    FieldCountry,
}

// Parse builds a unified query from user input. Clauses joined with
// "&&" or "AND" are split and matched independently: a bare IP or
// domain is typed directly, "field=value" and "field:value" clauses
// are matched against the known field spellings, and everything else
// becomes a raw term.
func Parse(input string) Unified {
	var q Unified
	for _, clause := range splitClauses(input) {
		parseClause(&q, clause)
	}
	return q
}

// splitClauses splits on the common AND spellings.
func splitClauses(input string) []string {
	replaced := strings.ReplaceAll(input, "&&", "\x00")
	replaced = regexp.MustCompile(`(?i)\s+AND\s+`).ReplaceAllString(replaced, "\x00")

	var out []string
	for _, part := range strings.Split(replaced, "\x00") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseClause types one clause into the query.
func parseClause(q *Unified, clause string) {
	switch {
	case ipPattern.MatchString(clause):
		q.IP = clause
		return
	case domainPattern.MatchString(clause):
		q.Domain = clause
		return
	}

	m := clausePattern.FindStringSubmatch(clause)
	if m == nil {
		q.Raw = append(q.Raw, clause)
		return
	}
	field, ok := fieldAliases[strings.ToLower(m[1])]
	if !ok {
		q.Raw = append(q.Raw, clause)
		return
	}

	value := strings.Trim(strings.TrimSpace(m[2]), `"'`)
	switch field {
	case FieldIP:
		q.IP = value
	case FieldPort:
		q.Port = value
	case FieldDomain:
		q.Domain = value
	case FieldTitle:
		q.Title = value
	case FieldBody:
		q.Body = value
	case FieldServer:
		q.Server = value
	case FieldCountry:
		q.Country = value
	}
}

// Dialect describes how one backend spells queries: its per-field
// vocabulary, assignment and AND tokens, quoting, and whether it
// tolerates free-form terms.
type Dialect struct {
	// Name identifies the backend the dialect belongs to.
	Name string

	// Fields maps unified fields to the backend's field names. Absent
	// fields are dropped with a warning.
	Fields map[Field]string

	// Assign separates field from value ("=" or ":").
	Assign string

	// And joins rendered clauses.
	And string

	// QuoteAll quotes every value. When false only non-numeric values
	// are quoted.
	QuoteAll bool

	// FreeForm marks backends that accept unrecognized terms verbatim.
	FreeForm bool
}

// The supported backend dialects.
var (
	// DialectFOFA: port="80" && title="login".
	DialectFOFA = Dialect{
		Name: "fofa",
		Fields: map[Field]string{
			FieldIP: "ip", FieldPort: "port", FieldDomain: "domain",
			FieldTitle: "title", FieldBody: "body", FieldServer: "server",
			FieldCountry: "country",
		},
		Assign:   "=",
		And:      " && ",
		QuoteAll: true,
		FreeForm: true,
	}

	// DialectHunter: ip.port="80" && web.title="login". Hunter rejects
	// bare terms, so free-form input is dropped.
	DialectHunter = Dialect{
		Name: "hunter",
		Fields: map[Field]string{
			FieldIP: "ip", FieldPort: "ip.port", FieldDomain: "domain",
			FieldTitle: "web.title", FieldBody: "web.body",
			FieldServer: "header.server", FieldCountry: "ip.country",
		},
		Assign:   "=",
		And:      " && ",
		QuoteAll: true,
		FreeForm: false,
	}

	// DialectQuake: port:80 AND title:"login".
	DialectQuake = Dialect{
		Name: "quake",
		Fields: map[Field]string{
			FieldIP: "ip", FieldPort: "port", FieldDomain: "domain",
			FieldTitle: "title", FieldBody: "response", FieldServer: "server",
			FieldCountry: "country",
		},
		Assign:   ":",
		And:      " AND ",
		QuoteAll: false,
		FreeForm: true,
	}
)

// Translation is one backend's rendered query plus anything that could
// not be expressed in its vocabulary.
type Translation struct {
	Query    string
	Warnings []string
}

// Translate renders the unified query in the dialect. Typed fields are
// rendered in fixed order; raw terms pass through verbatim only when
// the dialect is free-form-tolerant and are otherwise dropped with a
// collected warning.
func Translate(q Unified, d Dialect) Translation {
	var (
		clauses  []string
		warnings []string
	)

	for _, field := range fieldOrder {
		value := q.value(field)
		if value == "" {
			continue
		}
		name, ok := d.Fields[field]
		if !ok {
			warnings = append(warnings,
				fmt.Sprintf("%s has no vocabulary for %s; dropped", d.Name, field))
			continue
		}
		clauses = append(clauses, name+d.Assign+d.renderValue(value))
	}

	for _, raw := range q.Raw {
		if d.FreeForm {
			clauses = append(clauses, raw)
			continue
		}
		warnings = append(warnings,
			fmt.Sprintf("%s does not accept free-form term %q; dropped", d.Name, raw))
	}

	return Translation{
		Query:    strings.Join(clauses, d.And),
		Warnings: warnings,
	}
}

// renderValue applies the dialect's quoting rule.
func (d Dialect) renderValue(value string) string {
	if d.QuoteAll || !portPattern.MatchString(value) {
		return `"` + value + `"`
	}
	return value
}
