package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/reconkit/orgscan/internal/extract"
	"github.com/reconkit/orgscan/internal/model"
)

// Detail fetches the company detail page and returns the industry
// classification plus any staff email addresses the page exposes.
func (c *Client) Detail(ctx context.Context, pid string) (model.IndustryInfo, []string, error) {
	body, err := c.do(ctx, request{
		method:  http.MethodGet,
		url:     fmt.Sprintf("%s/company_detail_%s", c.registryBase, pid),
		service: ServiceRegistry,
		referer: c.registryBase + "/",
	})
	if err != nil {
		return model.IndustryInfo{}, nil, err
	}

	obj, err := extract.Object(string(body), pageDataAnchor)
	if err != nil {
		return model.IndustryInfo{}, nil, model.WrapFailure(model.FailureMalformedPayload,
			"detail page carries no embedded state object", err)
	}

	var page struct {
		Result struct {
			IndustryMore struct {
				IndustryCode1 string `json:"industryCode1"`
				IndustryCode2 string `json:"industryCode2"`
				IndustryCode3 string `json:"industryCode3"`
				IndustryCode4 string `json:"industryCode4"`
				IndustryNum   string `json:"industryNum"`
			} `json:"industryMore"`
			EmailInfo []struct {
				Email string `json:"email"`
			} `json:"emailinfo"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(obj), &page); err != nil {
		return model.IndustryInfo{}, nil, model.WrapFailure(model.FailureMalformedPayload,
			"decoding embedded detail state", err)
	}

	industry := model.IndustryInfo{
		Category:    page.Result.IndustryMore.IndustryCode1,
		Subcategory: page.Result.IndustryMore.IndustryCode2,
		Group:       page.Result.IndustryMore.IndustryCode3,
		Detail:      page.Result.IndustryMore.IndustryCode4,
		Code:        page.Result.IndustryMore.IndustryNum,
	}

	var emails []string
	for _, item := range page.Result.EmailInfo {
		if item.Email != "" {
			emails = append(emails, item.Email)
		}
	}
	return industry, emails, nil
}
