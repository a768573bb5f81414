package pipeline

import (
	"context"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"

	"github.com/reconkit/orgscan/internal/model"
	"github.com/reconkit/orgscan/internal/registry"
)

// Collector is the registry surface the stages consume. *registry.Client
// satisfies it; tests substitute a mock.
type Collector interface {
	Search(ctx context.Context, company string) (*registry.SearchResult, error)
	Detail(ctx context.Context, pid string) (model.IndustryInfo, []string, error)
	ICPRecords(ctx context.Context, pid string) ([]model.ICPRecord, error)
	Apps(ctx context.Context, pid string) ([]string, error)
	WechatAccounts(ctx context.Context, pid string) ([]model.WechatAccount, error)
	EnterpriseID(ctx context.Context, pid string) (string, error)
	UnlockResource(ctx context.Context, enterpriseID string) error
	UnlockStockInfo(ctx context.Context) error
	Contacts(ctx context.Context, enterpriseID string) ([]string, error)
}

// Stages returns the full collection stage list in execution order.
func Stages(c Collector) []Stage {
	return []Stage{
		&DiscoveryStage{c},
		&DetailStage{c},
		&ICPStage{c},
		&AppsStage{c},
		&WechatStage{c},
		NewWhoisStage(),
		&EnterpriseIDStage{c},
		&ContactStage{c},
	}
}

// DiscoveryStage resolves the company name to its registry identifier
// and collects the result-card facts. Every later registry stage hangs
// off the identifier it produces.
type DiscoveryStage struct {
	collector Collector
}

func (s *DiscoveryStage) Name() string            { return "discovery" }
func (s *DiscoveryStage) Requires() []model.IDKey { return nil }

func (s *DiscoveryStage) Run(ctx context.Context, report *model.OrgReport) error {
	result, err := s.collector.Search(ctx, report.Company)
	if err != nil {
		return err
	}
	report.SetID(model.IDRegistry, result.PID)
	report.BasicInfo = result.Basic
	return nil
}

// DetailStage collects the industry classification and staff emails.
type DetailStage struct {
	collector Collector
}

func (s *DetailStage) Name() string            { return "detail" }
func (s *DetailStage) Requires() []model.IDKey { return []model.IDKey{model.IDRegistry} }

func (s *DetailStage) Run(ctx context.Context, report *model.OrgReport) error {
	pid, _ := report.ID(model.IDRegistry)
	industry, emails, err := s.collector.Detail(ctx, pid)
	if err != nil {
		return err
	}
	report.IndustryInfo = industry
	report.EmployeeEmails = emails
	return nil
}

// ICPStage collects web-filing records, the primary domain source.
type ICPStage struct {
	collector Collector
}

func (s *ICPStage) Name() string            { return "icp" }
func (s *ICPStage) Requires() []model.IDKey { return []model.IDKey{model.IDRegistry} }

func (s *ICPStage) Run(ctx context.Context, report *model.OrgReport) error {
	pid, _ := report.ID(model.IDRegistry)
	records, err := s.collector.ICPRecords(ctx, pid)
	if err != nil {
		return err
	}
	report.ICPRecords = records
	return nil
}

// AppsStage collects the company's mobile application names.
type AppsStage struct {
	collector Collector
}

func (s *AppsStage) Name() string            { return "apps" }
func (s *AppsStage) Requires() []model.IDKey { return []model.IDKey{model.IDRegistry} }

func (s *AppsStage) Run(ctx context.Context, report *model.OrgReport) error {
	pid, _ := report.ID(model.IDRegistry)
	apps, err := s.collector.Apps(ctx, pid)
	if err != nil {
		return err
	}
	report.Apps = apps
	return nil
}

// WechatStage collects the company's official messaging accounts.
type WechatStage struct {
	collector Collector
}

func (s *WechatStage) Name() string            { return "wechat" }
func (s *WechatStage) Requires() []model.IDKey { return []model.IDKey{model.IDRegistry} }

func (s *WechatStage) Run(ctx context.Context, report *model.OrgReport) error {
	pid, _ := report.ID(model.IDRegistry)
	accounts, err := s.collector.WechatAccounts(ctx, pid)
	if err != nil {
		return err
	}
	report.WechatAccounts = accounts
	return nil
}

// WhoisStage enriches the first filed domain with its registration
// record. The lookup runs against public WHOIS servers, so a failure
// here says nothing about the registry session; the stage is never
// more than a bonus.
type WhoisStage struct {
	// lookup is swappable for tests; defaults to a live WHOIS query.
	lookup func(domain string) (string, error)
}

// NewWhoisStage creates the enrichment stage with a live WHOIS lookup.
func NewWhoisStage() *WhoisStage {
	return &WhoisStage{
		lookup: func(domain string) (string, error) {
			return whois.Whois(domain)
		},
	}
}

func (s *WhoisStage) Name() string            { return "whois" }
func (s *WhoisStage) Requires() []model.IDKey { return nil }

func (s *WhoisStage) Run(_ context.Context, report *model.OrgReport) error {
	domain, ok := report.FirstDomain()
	if !ok {
		return model.NewFailure(model.FailureMissingDependency, "no filed domain to look up")
	}

	raw, err := s.lookup(domain)
	if err != nil {
		return model.WrapFailure(model.FailureTransientNetwork, "whois lookup failed", err)
	}
	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		return model.WrapFailure(model.FailureMalformedPayload, "parsing whois record", err)
	}

	reg := model.DomainRegistration{Domain: domain}
	if parsed.Registrar != nil {
		reg.Registrar = parsed.Registrar.Name
	}
	if parsed.Domain != nil {
		reg.CreatedDate = parsed.Domain.CreatedDate
		reg.ExpiresDate = parsed.Domain.ExpirationDate
		reg.NameServers = joinNameServers(parsed.Domain.NameServers)
	}
	report.Registrations = append(report.Registrations, reg)
	return nil
}

// joinNameServers renders the name server list as one comma-separated
// field for the report.
func joinNameServers(servers []string) string {
	out := ""
	for i, s := range servers {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// EnterpriseIDStage resolves the registry identifier to the CRM-side
// enterprise identifier the contact stage keys on.
type EnterpriseIDStage struct {
	collector Collector
}

func (s *EnterpriseIDStage) Name() string            { return "enterprise-id" }
func (s *EnterpriseIDStage) Requires() []model.IDKey { return []model.IDKey{model.IDRegistry} }

func (s *EnterpriseIDStage) Run(ctx context.Context, report *model.OrgReport) error {
	pid, _ := report.ID(model.IDRegistry)
	id, err := s.collector.EnterpriseID(ctx, pid)
	if err != nil {
		return err
	}
	report.SetID(model.IDEnterprise, id)
	return nil
}

// ContactStage unlocks the enterprise record in two steps and collects
// the exposed staff phone numbers. Both unlocks must acknowledge before
// the contact endpoint returns anything useful.
type ContactStage struct {
	collector Collector
}

func (s *ContactStage) Name() string            { return "contacts" }
func (s *ContactStage) Requires() []model.IDKey { return []model.IDKey{model.IDEnterprise} }

func (s *ContactStage) Run(ctx context.Context, report *model.OrgReport) error {
	id, _ := report.ID(model.IDEnterprise)

	if err := s.collector.UnlockResource(ctx, id); err != nil {
		return err
	}
	if err := s.collector.UnlockStockInfo(ctx); err != nil {
		return err
	}

	phones, err := s.collector.Contacts(ctx, id)
	if err != nil {
		return err
	}
	report.ContactPhones = phones
	return nil
}
