package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/reconkit/orgscan/internal/model"
)

// crmPath prefixes every CRM endpoint.
const crmPath = "/crm/web/aiqicha/bizcrm/enterprise"

// flexibleID decodes an identifier that arrives as either a JSON string
// or a JSON number.
type flexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexibleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

// crmPost sends a JSON payload to a CRM endpoint and returns the body.
func (c *Client) crmPost(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, model.WrapFailure(model.FailureConfiguration, "encoding CRM payload", err)
	}
	return c.do(ctx, request{
		method:  http.MethodPost,
		url:     c.crmBase + crmPath + path,
		service: ServiceCRM,
		referer: c.crmBase + "/index.html",
		ajax:    true,
		body:    body,
	})
}

// EnterpriseID resolves the registry identifier to the CRM-side
// enterprise identifier the contact endpoints key on.
func (c *Client) EnterpriseID(ctx context.Context, pid string) (string, error) {
	body, err := c.crmPost(ctx, "/queryBaseInfoBySourceId", map[string]any{
		"params": map[string]any{
			"sourceId":               pid,
			"isNeedLoadUnlockStatus": true,
		},
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Data struct {
			ID flexibleID `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", model.WrapFailure(model.FailureMalformedPayload,
			"decoding enterprise lookup", err)
	}
	if resp.Data.ID == "" {
		return "", model.NewFailure(model.FailureMalformedPayload,
			"enterprise lookup returned no identifier")
	}
	return string(resp.Data.ID), nil
}

// UnlockResource performs the first unlock step, marking the enterprise
// record as viewable for the current session.
func (c *Client) UnlockResource(ctx context.Context, enterpriseID string) error {
	body, err := c.crmPost(ctx, "/resourceunlock/unlockresource", map[string]any{
		"param": map[string]any{
			"resourceType":   1,
			"resourceIds":    []string{enterpriseID},
			"isNeedValidate": true,
			"platform":       "pc",
		},
	})
	if err != nil {
		return err
	}
	return checkUnlockReply(body, "resource unlock")
}

// UnlockStockInfo performs the second unlock step. It is session-wide
// rather than per enterprise.
func (c *Client) UnlockStockInfo(ctx context.Context) error {
	body, err := c.crmPost(ctx, "/resourceunlock/unlockstockinfo", map[string]any{
		"param": map[string]any{
			"resourceType": 1,
		},
	})
	if err != nil {
		return err
	}
	return checkUnlockReply(body, "stock info unlock")
}

// checkUnlockReply verifies the unlock endpoint acknowledged.
func checkUnlockReply(body []byte, op string) error {
	var resp struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.WrapFailure(model.FailureMalformedPayload,
			fmt.Sprintf("decoding %s reply", op), err)
	}
	if !strings.EqualFold(resp.Msg, "success") {
		return model.NewFailure(model.FailureMalformedPayload,
			fmt.Sprintf("%s refused: %s", op, resp.Msg))
	}
	return nil
}

// Contacts returns the staff phone numbers exposed for an unlocked
// enterprise, deduplicated in listing order. The endpoint answers with
// the contact record either as a single object or a one-element list.
func (c *Client) Contacts(ctx context.Context, enterpriseID string) ([]string, error) {
	body, err := c.crmPost(ctx, "/enterpriseContact/queryContactDetail", map[string]any{
		"param": map[string]any{
			"enterpriseId":            enterpriseID,
			"isNeedCrawlWeChat":       true,
			"isNeedLoadEnterpriseTag": true,
		},
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, model.WrapFailure(model.FailureMalformedPayload,
			"decoding contact reply", err)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil, model.NewFailure(model.FailureMalformedPayload,
			"contact reply carries no data")
	}

	phones, err := decodeContactPhones(resp.Data)
	if err != nil {
		return nil, model.WrapFailure(model.FailureMalformedPayload,
			"decoding contact record", err)
	}
	return dedupStrings(phones), nil
}

// contactRecord is the phone-bearing part of a contact reply.
type contactRecord struct {
	AllCellPhoneNOs []string `json:"allCellPhoneNOs"`
}

// decodeContactPhones handles the object and list shapes of the contact
// data field.
func decodeContactPhones(data json.RawMessage) ([]string, error) {
	var one contactRecord
	if err := json.Unmarshal(data, &one); err == nil {
		return one.AllCellPhoneNOs, nil
	}

	var many []contactRecord
	if err := json.Unmarshal(data, &many); err != nil {
		return nil, err
	}
	if len(many) == 0 {
		return nil, nil
	}
	return many[0].AllCellPhoneNOs, nil
}

// dedupStrings removes duplicates preserving first-seen order.
func dedupStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
