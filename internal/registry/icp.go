package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/reconkit/orgscan/internal/model"
)

// maxICPPages caps filing pagination. Companies with more than ten
// pages of filings exist, but past this point the records stop being
// attack-surface signal and start being noise.
const maxICPPages = 10

// icpPageSize is the registry's fixed page size; a short page means the
// listing is exhausted.
const icpPageSize = 10

// icpItem mirrors one filing row. The domain field arrives as either a
// string or an array depending on the record's age.
type icpItem struct {
	Domain   stringList `json:"domain"`
	SiteName string     `json:"siteName"`
	ICPNo    string     `json:"icpNo"`
}

// stringList decodes a JSON value that is either a string or an array
// of strings.
type stringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *stringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*s = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	if one != "" {
		*s = []string{one}
	}
	return nil
}

// ICPRecords fetches the company's web-filing records, walking the
// paged listing until a short page, the reported page count, or the
// page cap. The endpoint answers with two different shapes for the
// data field, so decoding tries the paged object first and falls back
// to a bare list.
func (c *Client) ICPRecords(ctx context.Context, pid string) ([]model.ICPRecord, error) {
	var records []model.ICPRecord

	for page := 1; page <= maxICPPages; page++ {
		body, err := c.do(ctx, request{
			method:  http.MethodGet,
			url:     fmt.Sprintf("%s/cs/icpInfoAjax?pid=%s&p=%d", c.registryBase, pid, page),
			service: ServiceRegistry,
			referer: fmt.Sprintf("%s/company_detail_%s?tab=certRecord", c.registryBase, pid),
			ajax:    true,
		})
		if err != nil {
			// Partial pages already collected still count.
			if len(records) > 0 {
				c.logger.Warn("filing pagination stopped early",
					"pid", pid,
					"page", page,
					"error", err,
				)
				return records, nil
			}
			return nil, err
		}

		var resp struct {
			Status  int             `json:"status"`
			Message string          `json:"message"`
			Data    json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return records, model.WrapFailure(model.FailureMalformedPayload,
				"decoding filing listing", err)
		}
		if resp.Status != 0 {
			if len(records) > 0 {
				return records, nil
			}
			return nil, model.NewFailure(model.FailureMalformedPayload,
				fmt.Sprintf("filing listing refused: %s", resp.Message))
		}

		items, pageCount, err := decodeICPData(resp.Data)
		if err != nil {
			return records, model.WrapFailure(model.FailureMalformedPayload,
				"decoding filing rows", err)
		}
		for _, item := range items {
			records = append(records, model.ICPRecord{
				Domains:  item.Domain,
				SiteName: item.SiteName,
				Licence:  item.ICPNo,
			})
		}

		if len(items) < icpPageSize {
			break
		}
		if pageCount > 0 && page >= pageCount {
			break
		}
	}
	return records, nil
}

// decodeICPData handles the endpoint's two data shapes: a paged object
// with list and pageCount, or a bare row list. A bare list reports no
// page count.
func decodeICPData(data json.RawMessage) ([]icpItem, int, error) {
	var paged struct {
		List      []icpItem `json:"list"`
		PageCount int       `json:"pageCount"`
	}
	if err := json.Unmarshal(data, &paged); err == nil && paged.List != nil {
		return paged.List, paged.PageCount, nil
	}

	var bare []icpItem
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, 0, err
	}
	return bare, 0, nil
}
