package model

import "time"

// IDKey names an identifier produced by one pipeline stage and required
// by later stages.
type IDKey string

const (
	// IDRegistry is the registry-internal company identifier produced by
	// the discovery stage. Every later registry stage needs it.
	IDRegistry IDKey = "registry_id"

	// IDEnterprise is the CRM-side enterprise identifier produced by the
	// enterprise-id stage. The contact stage needs it.
	IDEnterprise IDKey = "enterprise_id"
)

// BasicInfo holds the company facts extracted from the discovery page.
type BasicInfo struct {
	LegalPerson string `json:"legal_person,omitempty"`
	Address     string `json:"address,omitempty"`
	RegCapital  string `json:"reg_capital,omitempty"`
	CreditCode  string `json:"credit_code,omitempty"`
	Email       string `json:"email,omitempty"`
	Website     string `json:"website,omitempty"`
	Telephone   string `json:"telephone,omitempty"`
}

// IndustryInfo holds the industry classification from the detail page.
type IndustryInfo struct {
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	Group       string `json:"group,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Code        string `json:"code,omitempty"`
}

// ICPRecord is one web-filing record: the domains a company registered
// and the site they belong to.
type ICPRecord struct {
	Domains  []string `json:"domains,omitempty"`
	SiteName string   `json:"site_name,omitempty"`
	Licence  string   `json:"licence,omitempty"`
}

// WechatAccount is one official messaging account operated by the company.
type WechatAccount struct {
	Name string `json:"name,omitempty"`
	ID   string `json:"id,omitempty"`
}

// DomainRegistration summarizes the WHOIS record of one discovered domain.
type DomainRegistration struct {
	Domain      string `json:"domain"`
	Registrar   string `json:"registrar,omitempty"`
	CreatedDate string `json:"created_date,omitempty"`
	ExpiresDate string `json:"expires_date,omitempty"`
	NameServers string `json:"name_servers,omitempty"`
}

// OrgReport is the per-target accumulator for the enterprise pipeline.
// It has exactly one writer: the pipeline run that owns it. Once the run
// ends the report is read-only.
type OrgReport struct {
	// Company is the organization name as submitted.
	Company string `json:"company"`

	// DateCollected is when the pipeline run started.
	DateCollected time.Time `json:"date_collected"`

	// Outcome is the terminal run state.
	Outcome Outcome `json:"outcome"`

	// Stages records each stage's execution result in declared order.
	Stages []StageOutcome `json:"stages"`

	// === Collected fields, merged stage by stage ===

	BasicInfo      BasicInfo            `json:"basic_info"`
	IndustryInfo   IndustryInfo         `json:"industry_info"`
	EmployeeEmails []string             `json:"employee_emails,omitempty"`
	ICPRecords     []ICPRecord          `json:"icp_records,omitempty"`
	Apps           []string             `json:"apps,omitempty"`
	WechatAccounts []WechatAccount      `json:"wechat_accounts,omitempty"`
	Registrations  []DomainRegistration `json:"registrations,omitempty"`
	ContactPhones  []string             `json:"contact_phones,omitempty"`

	// ids holds stage-produced identifiers keyed by IDKey. They are
	// internal plumbing between stages and are not serialized; the caller
	// never depends on registry-internal identifiers.
	ids map[IDKey]string
}

// NewOrgReport creates an empty accumulator for the given company.
func NewOrgReport(company string) *OrgReport {
	return &OrgReport{
		Company:       company,
		DateCollected: time.Now(),
		ids:           make(map[IDKey]string),
	}
}

// SetID stores an identifier produced by a stage.
func (r *OrgReport) SetID(key IDKey, value string) {
	if value == "" {
		return
	}
	r.ids[key] = value
}

// ID returns the identifier for key and whether it is present.
func (r *OrgReport) ID(key IDKey) (string, bool) {
	v, ok := r.ids[key]
	return v, ok
}

// RecordStage appends a stage outcome.
func (r *OrgReport) RecordStage(outcome StageOutcome) {
	r.Stages = append(r.Stages, outcome)
}

// Finalize computes the terminal outcome from the recorded stages.
// The first stage is discovery: if it did not succeed the run is FAILED.
// If every stage succeeded the run is DONE, otherwise PARTIAL.
func (r *OrgReport) Finalize() {
	if len(r.Stages) == 0 || r.Stages[0].Status != StageSuccess {
		r.Outcome = OutcomeFailed
		return
	}
	for _, s := range r.Stages[1:] {
		if s.Status != StageSuccess {
			r.Outcome = OutcomePartial
			return
		}
	}
	r.Outcome = OutcomeDone
}

// FirstDomain returns the first domain found in the ICP records, if any.
// It is the natural candidate for WHOIS enrichment.
func (r *OrgReport) FirstDomain() (string, bool) {
	for _, rec := range r.ICPRecords {
		for _, d := range rec.Domains {
			if d != "" {
				return d, true
			}
		}
	}
	return "", false
}
