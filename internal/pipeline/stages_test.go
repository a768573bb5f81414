package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/reconkit/orgscan/internal/model"
	"github.com/reconkit/orgscan/internal/registry"
)

// mockCollector is a scriptable Collector. Unset functions fail the
// test if called.
type mockCollector struct {
	t *testing.T

	search          func(company string) (*registry.SearchResult, error)
	detail          func(pid string) (model.IndustryInfo, []string, error)
	icpRecords      func(pid string) ([]model.ICPRecord, error)
	apps            func(pid string) ([]string, error)
	wechatAccounts  func(pid string) ([]model.WechatAccount, error)
	enterpriseID    func(pid string) (string, error)
	unlockResource  func(id string) error
	unlockStockInfo func() error
	contacts        func(id string) ([]string, error)
}

func (m *mockCollector) Search(_ context.Context, company string) (*registry.SearchResult, error) {
	if m.search == nil {
		m.t.Fatal("unexpected Search call")
	}
	return m.search(company)
}

func (m *mockCollector) Detail(_ context.Context, pid string) (model.IndustryInfo, []string, error) {
	if m.detail == nil {
		m.t.Fatal("unexpected Detail call")
	}
	return m.detail(pid)
}

func (m *mockCollector) ICPRecords(_ context.Context, pid string) ([]model.ICPRecord, error) {
	if m.icpRecords == nil {
		m.t.Fatal("unexpected ICPRecords call")
	}
	return m.icpRecords(pid)
}

func (m *mockCollector) Apps(_ context.Context, pid string) ([]string, error) {
	if m.apps == nil {
		m.t.Fatal("unexpected Apps call")
	}
	return m.apps(pid)
}

func (m *mockCollector) WechatAccounts(_ context.Context, pid string) ([]model.WechatAccount, error) {
	if m.wechatAccounts == nil {
		m.t.Fatal("unexpected WechatAccounts call")
	}
	return m.wechatAccounts(pid)
}

func (m *mockCollector) EnterpriseID(_ context.Context, pid string) (string, error) {
	if m.enterpriseID == nil {
		m.t.Fatal("unexpected EnterpriseID call")
	}
	return m.enterpriseID(pid)
}

func (m *mockCollector) UnlockResource(_ context.Context, id string) error {
	if m.unlockResource == nil {
		m.t.Fatal("unexpected UnlockResource call")
	}
	return m.unlockResource(id)
}

func (m *mockCollector) UnlockStockInfo(context.Context) error {
	if m.unlockStockInfo == nil {
		m.t.Fatal("unexpected UnlockStockInfo call")
	}
	return m.unlockStockInfo()
}

func (m *mockCollector) Contacts(_ context.Context, id string) ([]string, error) {
	if m.contacts == nil {
		m.t.Fatal("unexpected Contacts call")
	}
	return m.contacts(id)
}

// TestDiscoveryStage tests identifier and basic-info merging.
func TestDiscoveryStage(t *testing.T) {
	t.Parallel()

	stage := &DiscoveryStage{&mockCollector{t: t,
		search: func(company string) (*registry.SearchResult, error) {
			if company != "Example Corp" {
				t.Errorf("unexpected company: %q", company)
			}
			return &registry.SearchResult{
				PID:   "70000123",
				Name:  "Example Corp Ltd",
				Basic: model.BasicInfo{LegalPerson: "Zhang San"},
			}, nil
		},
	}}

	report := model.NewOrgReport("Example Corp")
	if err := stage.Run(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pid, ok := report.ID(model.IDRegistry); !ok || pid != "70000123" {
		t.Errorf("registry id not stored: %q %v", pid, ok)
	}
	if report.BasicInfo.LegalPerson != "Zhang San" {
		t.Errorf("basic info not merged: %+v", report.BasicInfo)
	}
}

// TestContactStage tests the unlock sequence ahead of contact retrieval.
func TestContactStage(t *testing.T) {
	t.Parallel()

	t.Run("unlocks twice then collects", func(t *testing.T) {
		t.Parallel()

		var calls []string
		stage := &ContactStage{&mockCollector{t: t,
			unlockResource: func(id string) error {
				calls = append(calls, "unlock:"+id)
				return nil
			},
			unlockStockInfo: func() error {
				calls = append(calls, "unlock-stock")
				return nil
			},
			contacts: func(id string) ([]string, error) {
				calls = append(calls, "contacts:"+id)
				return []string{"13800000001"}, nil
			},
		}}

		report := model.NewOrgReport("Example Corp")
		report.SetID(model.IDEnterprise, "987654")

		if err := stage.Run(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"unlock:987654", "unlock-stock", "contacts:987654"}
		if len(calls) != len(want) {
			t.Fatalf("unexpected call sequence: %v", calls)
		}
		for i := range want {
			if calls[i] != want[i] {
				t.Errorf("call %d: expected %s, got %s", i, want[i], calls[i])
			}
		}
		if len(report.ContactPhones) != 1 {
			t.Errorf("phones not merged: %v", report.ContactPhones)
		}
	})

	t.Run("failed first unlock stops the stage", func(t *testing.T) {
		t.Parallel()

		stage := &ContactStage{&mockCollector{t: t,
			unlockResource: func(string) error {
				return model.NewFailure(model.FailureMalformedPayload, "quota exceeded")
			},
		}}

		report := model.NewOrgReport("Example Corp")
		report.SetID(model.IDEnterprise, "987654")

		err := stage.Run(context.Background(), report)
		var f *model.Failure
		if !errors.As(err, &f) || f.Kind != model.FailureMalformedPayload {
			t.Fatalf("expected malformed failure, got %v", err)
		}
	})
}

// TestWhoisStage tests domain enrichment.
func TestWhoisStage(t *testing.T) {
	t.Parallel()

	t.Run("no filed domain is a missing dependency", func(t *testing.T) {
		t.Parallel()

		stage := NewWhoisStage()
		report := model.NewOrgReport("Example Corp")

		err := stage.Run(context.Background(), report)
		var f *model.Failure
		if !errors.As(err, &f) || f.Kind != model.FailureMissingDependency {
			t.Fatalf("expected missing-dependency failure, got %v", err)
		}
	})

	t.Run("parses the registration record", func(t *testing.T) {
		t.Parallel()

		stage := &WhoisStage{lookup: func(domain string) (string, error) {
			if domain != "example.com" {
				t.Errorf("unexpected domain: %q", domain)
			}
			return "Domain Name: EXAMPLE.COM\n" +
				"Registrar: Example Registrar, Inc.\n" +
				"Creation Date: 1995-08-14T04:00:00Z\n" +
				"Registry Expiry Date: 2026-08-13T04:00:00Z\n" +
				"Name Server: A.IANA-SERVERS.NET\n" +
				"Name Server: B.IANA-SERVERS.NET\n", nil
		}}

		report := model.NewOrgReport("Example Corp")
		report.ICPRecords = []model.ICPRecord{{Domains: []string{"example.com"}}}

		if err := stage.Run(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Registrations) != 1 {
			t.Fatalf("expected one registration, got %d", len(report.Registrations))
		}
		reg := report.Registrations[0]
		if reg.Domain != "example.com" || reg.Registrar == "" || reg.NameServers == "" {
			t.Errorf("registration incomplete: %+v", reg)
		}
	})
}

// TestStages tests the declared stage order.
func TestStages(t *testing.T) {
	t.Parallel()

	stages := Stages(&mockCollector{t: t})
	want := []string{"discovery", "detail", "icp", "apps", "wechat", "whois", "enterprise-id", "contacts"}
	if len(stages) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(stages))
	}
	for i, s := range stages {
		if s.Name() != want[i] {
			t.Errorf("stage %d: expected %s, got %s", i, want[i], s.Name())
		}
	}
}
