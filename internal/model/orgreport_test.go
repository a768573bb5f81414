package model

import "testing"

// TestOrgReportFinalize tests terminal outcome computation.
func TestOrgReportFinalize(t *testing.T) {
	t.Parallel()

	t.Run("no stages yields failed", func(t *testing.T) {
		t.Parallel()

		r := NewOrgReport("Example Corp")
		r.Finalize()

		if r.Outcome != OutcomeFailed {
			t.Errorf("expected %s, got %s", OutcomeFailed, r.Outcome)
		}
	})

	t.Run("failed discovery yields failed", func(t *testing.T) {
		t.Parallel()

		r := NewOrgReport("Example Corp")
		r.RecordStage(FailedStage("discovery", FailureBlockedByTarget, "challenge page", 3))
		r.RecordStage(SkippedStage("detail", FailureMissingDependency, "no registry id"))
		r.Finalize()

		if r.Outcome != OutcomeFailed {
			t.Errorf("expected %s, got %s", OutcomeFailed, r.Outcome)
		}
	})

	t.Run("all stages succeeded yields done", func(t *testing.T) {
		t.Parallel()

		r := NewOrgReport("Example Corp")
		r.RecordStage(SucceededStage("discovery", 1))
		r.RecordStage(SucceededStage("detail", 1))
		r.Finalize()

		if r.Outcome != OutcomeDone {
			t.Errorf("expected %s, got %s", OutcomeDone, r.Outcome)
		}
	})

	t.Run("later failure after discovery yields partial", func(t *testing.T) {
		t.Parallel()

		r := NewOrgReport("Example Corp")
		r.RecordStage(SucceededStage("discovery", 1))
		r.RecordStage(FailedStage("icp_records", FailureMalformedPayload, "truncated object", 1))
		r.Finalize()

		if r.Outcome != OutcomePartial {
			t.Errorf("expected %s, got %s", OutcomePartial, r.Outcome)
		}
	})
}

// TestOrgReportIDs tests identifier plumbing between stages.
func TestOrgReportIDs(t *testing.T) {
	t.Parallel()

	r := NewOrgReport("Example Corp")

	if _, ok := r.ID(IDRegistry); ok {
		t.Error("expected no registry id before discovery")
	}

	r.SetID(IDRegistry, "pid-123")
	got, ok := r.ID(IDRegistry)
	if !ok || got != "pid-123" {
		t.Errorf("expected pid-123, got %q (ok=%v)", got, ok)
	}

	// Empty values must not register as present.
	r.SetID(IDEnterprise, "")
	if _, ok := r.ID(IDEnterprise); ok {
		t.Error("expected empty id to be ignored")
	}
}

// TestOrgReportFirstDomain tests the WHOIS enrichment candidate lookup.
func TestOrgReportFirstDomain(t *testing.T) {
	t.Parallel()

	r := NewOrgReport("Example Corp")
	if _, ok := r.FirstDomain(); ok {
		t.Error("expected no domain on empty report")
	}

	r.ICPRecords = []ICPRecord{
		{Domains: []string{""}, SiteName: "empty"},
		{Domains: []string{"example.com", "example.cn"}, SiteName: "main"},
	}

	d, ok := r.FirstDomain()
	if !ok || d != "example.com" {
		t.Errorf("expected example.com, got %q (ok=%v)", d, ok)
	}
}
