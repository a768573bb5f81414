package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/reconkit/orgscan/internal/extract"
	"github.com/reconkit/orgscan/internal/model"
)

// pageDataAnchor marks the embedded state object on registry HTML pages.
const pageDataAnchor = "window.pageData"

// SearchResult is the discovery outcome for one company: the
// registry-internal identifier plus the facts shown on the result card.
type SearchResult struct {
	PID   string
	Name  string
	Basic model.BasicInfo
}

// searchHit mirrors one entry of the embedded search result list.
type searchHit struct {
	PID           string `json:"pid"`
	EntName       string `json:"entName"`
	LegalPerson   string `json:"legalPerson"`
	TitleDomicile string `json:"titleDomicile"`
	RegCap        string `json:"regCap"`
	RegNo         string `json:"regNo"`
	Email         string `json:"email"`
	Website       string `json:"website"`
	Telephone     string `json:"telephone"`
}

// Search looks a company up by name and returns the first hit. The
// search page is HTML with the result list embedded as a script-side
// state object, so the payload is recovered with the extractor rather
// than an HTML parser.
func (c *Client) Search(ctx context.Context, company string) (*SearchResult, error) {
	body, err := c.do(ctx, request{
		method:  http.MethodGet,
		url:     fmt.Sprintf("%s/s?q=%s&t=0", c.registryBase, url.QueryEscape(company)),
		service: ServiceRegistry,
		referer: c.registryBase + "/",
	})
	if err != nil {
		return nil, err
	}

	obj, err := extract.Object(string(body), pageDataAnchor)
	if err != nil {
		return nil, model.WrapFailure(model.FailureMalformedPayload,
			"search page carries no embedded state object", err)
	}

	var page struct {
		Result struct {
			ResultList []searchHit `json:"resultList"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(obj), &page); err != nil {
		return nil, model.WrapFailure(model.FailureMalformedPayload,
			"decoding embedded search state", err)
	}
	if len(page.Result.ResultList) == 0 {
		return nil, model.NewFailure(model.FailureMalformedPayload,
			fmt.Sprintf("no registry entry found for %q", company))
	}

	hit := page.Result.ResultList[0]
	if hit.PID == "" {
		return nil, model.NewFailure(model.FailureMalformedPayload,
			"first search hit carries no registry identifier")
	}

	c.logger.Info("company discovered",
		"company", company,
		"matched", hit.EntName,
	)
	return &SearchResult{
		PID:  hit.PID,
		Name: hit.EntName,
		Basic: model.BasicInfo{
			LegalPerson: hit.LegalPerson,
			Address:     hit.TitleDomicile,
			RegCapital:  hit.RegCap,
			CreditCode:  hit.RegNo,
			Email:       hit.Email,
			Website:     hit.Website,
			Telephone:   hit.Telephone,
		},
	}, nil
}
