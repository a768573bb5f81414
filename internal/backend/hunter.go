package backend

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/reconkit/orgscan/internal/model"
	"github.com/reconkit/orgscan/internal/query"
	"github.com/reconkit/orgscan/internal/session"
)

const defaultHunterBase = "https://hunter.qianxin.com/openApi"

// Hunter queries the Hunter asset-search API. The query travels
// URL-safe-base64 encoded; plain base64 padding breaks the parameter.
type Hunter struct {
	client
}

// NewHunter creates a Hunter backend.
func NewHunter(httpClient *http.Client, creds *session.Store, opts ...Option) *Hunter {
	return &Hunter{newClient(httpClient, creds, defaultHunterBase, opts...)}
}

// Name implements Backend.
func (h *Hunter) Name() string { return ServiceHunter }

// Dialect implements Backend.
func (h *Hunter) Dialect() query.Dialect { return query.DialectHunter }

// hunterReply is the search response envelope. Code 200 marks success;
// quota and auth problems come back as other codes with HTTP 200.
type hunterReply struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Arr   []hunterRow `json:"arr"`
		Total int         `json:"total"`
	} `json:"data"`
}

// hunterRow is one native result record.
type hunterRow struct {
	URL      string `json:"url"`
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	WebTitle string `json:"web_title"`
	Domain   string `json:"domain"`
	Country  string `json:"country"`
	City     string `json:"city"`
}

// Search implements Backend.
func (h *Hunter) Search(ctx context.Context, translated string, limit int) ([]model.Entry, int, error) {
	cred, err := h.creds.Get(ServiceHunter)
	if err != nil {
		return nil, 0, model.WrapFailure(model.FailureConfiguration, "no hunter credentials", err)
	}

	params := url.Values{}
	params.Set("api-key", cred.APIKey)
	params.Set("search", base64.URLEncoding.EncodeToString([]byte(translated)))
	params.Set("page", "1")
	params.Set("page_size", strconv.Itoa(limit))
	// 3 covers web and non-web assets alike.
	params.Set("is_web", "3")
	params.Set("port_filter", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		h.base+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, model.WrapFailure(model.FailureConfiguration, "building request", err)
	}

	var reply hunterReply
	if err := h.doJSON(req, &reply); err != nil {
		return nil, 0, err
	}
	if reply.Code != 200 {
		return nil, 0, fmt.Errorf("hunter rejected the query (code %d): %s", reply.Code, reply.Message)
	}

	entries := make([]model.Entry, 0, len(reply.Data.Arr))
	for _, row := range reply.Data.Arr {
		host := row.URL
		if host == "" {
			host = row.Domain
		}
		entries = append(entries, model.Entry{
			Host:    host,
			IP:      row.IP,
			Port:    row.Port,
			Title:   row.WebTitle,
			Country: row.Country,
			City:    row.City,
			Backend: ServiceHunter,
		})
	}
	return entries, reply.Data.Total, nil
}
