package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reconkit/orgscan/internal/model"
	"github.com/reconkit/orgscan/internal/session"
	"github.com/reconkit/orgscan/internal/throttle"
)

// newTestClient builds a client against a local test server with both
// services authenticated and all waits collapsed.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	creds := session.NewStore(map[string]session.Credential{
		ServiceRegistry: {Cookies: session.ParseCookies("BDUSS=test-session")},
		ServiceCRM:      {Cookies: session.ParseCookies("XKB=test-session")},
	})

	c := NewClient(srv.Client(), creds,
		WithBaseURLs(srv.URL, srv.URL),
		WithThrottle(throttle.New(throttle.WithInterval(time.Nanosecond, time.Nanosecond))),
	)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

// searchPage renders a search result page with an embedded state object.
func searchPage(hits string) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><head><title>search</title></head>
<body><script>window.pageData = {"result":{"resultList":[%s]}};</script></body></html>`, hits)
}

// TestSearch tests company discovery from the search page.
func TestSearch(t *testing.T) {
	t.Parallel()

	t.Run("extracts the first hit", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/s" {
				http.NotFound(w, r)
				return
			}
			if got := r.URL.Query().Get("q"); got != "Example Corp" {
				t.Errorf("unexpected query: %q", got)
			}
			if r.Header.Get("Cookie") == "" {
				t.Error("expected session cookie on request")
			}
			fmt.Fprint(w, searchPage(`{"pid":"70000123","entName":"Example Corp Ltd",
"legalPerson":"Zhang San","titleDomicile":"Beijing","regCap":"1000万","regNo":"91110000MA01234567",
"email":"info@example.com","website":"www.example.com","telephone":"010-12345678"}`))
		}))

		got, err := c.Search(context.Background(), "Example Corp")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.PID != "70000123" {
			t.Errorf("unexpected pid: %q", got.PID)
		}
		if got.Name != "Example Corp Ltd" {
			t.Errorf("unexpected name: %q", got.Name)
		}
		if got.Basic.LegalPerson != "Zhang San" || got.Basic.CreditCode != "91110000MA01234567" {
			t.Errorf("unexpected basic info: %+v", got.Basic)
		}
	})

	t.Run("missing session is a configuration failure", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		c.creds = session.NewStore(nil)

		_, err := c.Search(context.Background(), "Example Corp")
		var f *model.Failure
		if !errors.As(err, &f) || f.Kind != model.FailureConfiguration {
			t.Fatalf("expected configuration failure, got %v", err)
		}
	})

	t.Run("blocked responses are retried until success", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			fmt.Fprint(w, searchPage(`{"pid":"1","entName":"Example Corp Ltd"}`))
		}))

		got, err := c.Search(context.Background(), "Example Corp")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.PID != "1" {
			t.Errorf("unexpected pid: %q", got.PID)
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 requests, got %d", calls.Load())
		}
	})

	t.Run("persistent blocking exhausts the attempt budget", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		_, err := c.Search(context.Background(), "Example Corp")
		var f *model.Failure
		if !errors.As(err, &f) || f.Kind != model.FailureBlockedByTarget {
			t.Fatalf("expected blocked failure, got %v", err)
		}
		if calls.Load() != maxAttempts {
			t.Errorf("expected %d attempts, got %d", maxAttempts, calls.Load())
		}
	})

	t.Run("page without state object is malformed and not retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			fmt.Fprint(w, "<html><body>nothing embedded here at all, just filler text to pass the length gate</body></html>")
		}))

		_, err := c.Search(context.Background(), "Example Corp")
		var f *model.Failure
		if !errors.As(err, &f) || f.Kind != model.FailureMalformedPayload {
			t.Fatalf("expected malformed failure, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected a single attempt, got %d", calls.Load())
		}
	})

	t.Run("empty result list is malformed", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, searchPage(""))
		}))

		_, err := c.Search(context.Background(), "Unknown Co")
		var f *model.Failure
		if !errors.As(err, &f) || f.Kind != model.FailureMalformedPayload {
			t.Fatalf("expected malformed failure, got %v", err)
		}
	})
}

// TestDetail tests industry and email extraction from the detail page.
func TestDetail(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/company_detail_70000123" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><body><script>window.pageData = {"result":{
"industryMore":{"industryCode1":"I","industryCode2":"I65","industryCode3":"I651","industryCode4":"I6512","industryNum":"6512"},
"emailinfo":[{"email":"a@example.com"},{"email":"b@example.com"},{"email":""}]}};</script></body></html>`)
	}))

	industry, emails, err := c.Detail(context.Background(), "70000123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if industry.Category != "I" || industry.Detail != "I6512" || industry.Code != "6512" {
		t.Errorf("unexpected industry info: %+v", industry)
	}
	if len(emails) != 2 || emails[0] != "a@example.com" {
		t.Errorf("unexpected emails: %v", emails)
	}
}

// TestICPRecords tests filing pagination and shape tolerance.
func TestICPRecords(t *testing.T) {
	t.Parallel()

	t.Run("walks pages until a short page", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			page := r.URL.Query().Get("p")
			switch page {
			case "1":
				items := make([]map[string]any, 0, 10)
				for i := range 10 {
					items = append(items, map[string]any{
						"domain":   []string{fmt.Sprintf("site%d.example.com", i)},
						"siteName": fmt.Sprintf("Site %d", i),
						"icpNo":    fmt.Sprintf("京ICP备%05d号", i),
					})
				}
				json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
					"status": 0,
					"data":   map[string]any{"list": items, "pageCount": 2},
				})
			case "2":
				json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
					"status": 0,
					"data": map[string]any{"list": []map[string]any{{
						"domain":   "last.example.com",
						"siteName": "Last",
						"icpNo":    "京ICP备99999号",
					}}, "pageCount": 2},
				})
			default:
				t.Errorf("unexpected page request: %s", page)
			}
		}))

		records, err := c.ICPRecords(context.Background(), "70000123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 11 {
			t.Fatalf("expected 11 records, got %d", len(records))
		}
		if records[10].Domains[0] != "last.example.com" {
			t.Errorf("string-shaped domain not decoded: %+v", records[10])
		}
	})

	t.Run("bare list shape is accepted", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
				"status": 0,
				"data": []map[string]any{{
					"domain":   []string{"only.example.com"},
					"siteName": "Only",
					"icpNo":    "京ICP备1号",
				}},
			})
		}))

		records, err := c.ICPRecords(context.Background(), "70000123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 1 || records[0].SiteName != "Only" {
			t.Errorf("unexpected records: %+v", records)
		}
	})

	t.Run("refused listing with no prior pages fails", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
				"status": 1, "message": "not allowed",
			})
		}))

		_, err := c.ICPRecords(context.Background(), "70000123")
		var f *model.Failure
		if !errors.As(err, &f) || f.Kind != model.FailureMalformedPayload {
			t.Fatalf("expected malformed failure, got %v", err)
		}
	})
}

// TestManagedAssets tests app and messaging account listings.
func TestManagedAssets(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"status": 0,
			"data": map[string]any{
				"appinfo": map[string]any{"list": []map[string]any{
					{"name": "Example App"}, {"name": ""},
				}},
				"wechatoa": map[string]any{"list": []map[string]any{
					{"wechatName": "Example Official", "wechatId": "gh_123"},
				}},
			},
		})
	})

	t.Run("apps", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, handler)
		apps, err := c.Apps(context.Background(), "70000123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(apps) != 1 || apps[0] != "Example App" {
			t.Errorf("unexpected apps: %v", apps)
		}
	})

	t.Run("wechat accounts", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, handler)
		accounts, err := c.WechatAccounts(context.Background(), "70000123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(accounts) != 1 || accounts[0].ID != "gh_123" {
			t.Errorf("unexpected accounts: %+v", accounts)
		}
	})
}

// TestCRMFlow tests enterprise-id lookup, the two unlock steps, and
// contact retrieval.
func TestCRMFlow(t *testing.T) {
	t.Parallel()

	t.Run("enterprise id accepts numeric identifiers", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			var payload struct {
				Params struct {
					SourceID string `json:"sourceId"`
				} `json:"params"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decoding payload: %v", err)
			}
			if payload.Params.SourceID != "70000123" {
				t.Errorf("unexpected source id: %q", payload.Params.SourceID)
			}
			fmt.Fprint(w, `{"data":{"id":987654}}`)
		}))

		id, err := c.EnterpriseID(context.Background(), "70000123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "987654" {
			t.Errorf("unexpected id: %q", id)
		}
	})

	t.Run("unlock acknowledgement", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"msg":"success"}`)
		}))

		if err := c.UnlockResource(context.Background(), "987654"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if err := c.UnlockStockInfo(context.Background()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unlock refusal fails", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"msg":"quota exceeded"}`)
		}))

		err := c.UnlockResource(context.Background(), "987654")
		var f *model.Failure
		if !errors.As(err, &f) || f.Kind != model.FailureMalformedPayload {
			t.Fatalf("expected malformed failure, got %v", err)
		}
	})

	t.Run("contacts deduplicate preserving order", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"data":[{"allCellPhoneNOs":["13800000001","13800000002","13800000001",""]}]}`)
		}))

		phones, err := c.Contacts(context.Background(), "987654")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"13800000001", "13800000002"}
		if len(phones) != len(want) || phones[0] != want[0] || phones[1] != want[1] {
			t.Errorf("unexpected phones: %v", phones)
		}
	})

	t.Run("contacts accept the object shape", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"data":{"allCellPhoneNOs":["13800000003"]}}`)
		}))

		phones, err := c.Contacts(context.Background(), "987654")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(phones) != 1 || phones[0] != "13800000003" {
			t.Errorf("unexpected phones: %v", phones)
		}
	})
}
