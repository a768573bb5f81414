package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/reconkit/orgscan/internal/model"
)

// manageResponse mirrors the operating-condition endpoint. The same
// endpoint serves both managed-app and messaging-account listings.
type manageResponse struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Data   struct {
		AppInfo struct {
			List []struct {
				Name string `json:"name"`
			} `json:"list"`
		} `json:"appinfo"`
		WechatOA struct {
			List []struct {
				WechatName string `json:"wechatName"`
				WechatID   string `json:"wechatId"`
			} `json:"list"`
		} `json:"wechatoa"`
	} `json:"data"`
}

// fetchManage calls the operating-condition endpoint for a company.
func (c *Client) fetchManage(ctx context.Context, pid string) (*manageResponse, error) {
	body, err := c.do(ctx, request{
		method:  http.MethodGet,
		url:     fmt.Sprintf("%s/detail/compManageAjax?pid=%s", c.registryBase, pid),
		service: ServiceRegistry,
		referer: fmt.Sprintf("%s/company_detail_%s?tab=operatingCondition", c.registryBase, pid),
		ajax:    true,
	})
	if err != nil {
		return nil, err
	}

	var resp manageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, model.WrapFailure(model.FailureMalformedPayload,
			"decoding operating-condition listing", err)
	}
	if resp.Status != 0 {
		return nil, model.NewFailure(model.FailureMalformedPayload,
			fmt.Sprintf("operating-condition listing refused: %s", resp.Msg))
	}
	return &resp, nil
}

// Apps returns the names of mobile applications the company operates.
func (c *Client) Apps(ctx context.Context, pid string) ([]string, error) {
	resp, err := c.fetchManage(ctx, pid)
	if err != nil {
		return nil, err
	}

	var apps []string
	for _, item := range resp.Data.AppInfo.List {
		if item.Name != "" {
			apps = append(apps, item.Name)
		}
	}
	return apps, nil
}

// WechatAccounts returns the official messaging accounts the company
// operates.
func (c *Client) WechatAccounts(ctx context.Context, pid string) ([]model.WechatAccount, error) {
	resp, err := c.fetchManage(ctx, pid)
	if err != nil {
		return nil, err
	}

	var accounts []model.WechatAccount
	for _, item := range resp.Data.WechatOA.List {
		if item.WechatName == "" && item.WechatID == "" {
			continue
		}
		accounts = append(accounts, model.WechatAccount{
			Name: item.WechatName,
			ID:   item.WechatID,
		})
	}
	return accounts, nil
}
