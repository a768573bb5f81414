package backend

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/reconkit/orgscan/internal/model"
	"github.com/reconkit/orgscan/internal/query"
	"github.com/reconkit/orgscan/internal/session"
)

const defaultFOFABase = "https://fofa.info/api/v1"

// fofaFields fixes the columns requested from the API. Result rows are
// positional arrays matched against this list, so the order here is the
// schema.
const fofaFields = "host,ip,port,title,country,city,server"

// FOFA queries the FOFA asset-search API. Authentication is an
// email+key pair sent as query parameters; the query itself travels
// standard-base64 encoded.
type FOFA struct {
	client
}

// NewFOFA creates a FOFA backend.
func NewFOFA(httpClient *http.Client, creds *session.Store, opts ...Option) *FOFA {
	return &FOFA{newClient(httpClient, creds, defaultFOFABase, opts...)}
}

// Name implements Backend.
func (f *FOFA) Name() string { return ServiceFOFA }

// Dialect implements Backend.
func (f *FOFA) Dialect() query.Dialect { return query.DialectFOFA }

// fofaReply is the search response envelope. The API reports failure
// in-band with an error flag and keeps HTTP 200.
type fofaReply struct {
	Error   bool    `json:"error"`
	Errmsg  string  `json:"errmsg"`
	Size    int     `json:"size"`
	Results [][]any `json:"results"`
}

// Search implements Backend.
func (f *FOFA) Search(ctx context.Context, translated string, limit int) ([]model.Entry, int, error) {
	cred, err := f.creds.Get(ServiceFOFA)
	if err != nil {
		return nil, 0, model.WrapFailure(model.FailureConfiguration, "no fofa credentials", err)
	}

	params := url.Values{}
	params.Set("email", cred.Email)
	params.Set("key", cred.APIKey)
	params.Set("qbase64", base64.StdEncoding.EncodeToString([]byte(translated)))
	params.Set("size", strconv.Itoa(limit))
	params.Set("page", "1")
	params.Set("fields", fofaFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		f.base+"/search/all?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, model.WrapFailure(model.FailureConfiguration, "building request", err)
	}

	var reply fofaReply
	if err := f.doJSON(req, &reply); err != nil {
		return nil, 0, err
	}
	if reply.Error {
		return nil, 0, fmt.Errorf("fofa rejected the query: %s", reply.Errmsg)
	}

	columns := strings.Split(fofaFields, ",")
	entries := make([]model.Entry, 0, len(reply.Results))
	for _, row := range reply.Results {
		e := model.Entry{Backend: ServiceFOFA}
		for i, column := range columns {
			if i >= len(row) {
				break
			}
			value := asString(row[i])
			switch column {
			case "host":
				e.Host = value
			case "ip":
				e.IP = value
			case "port":
				e.Port, _ = strconv.Atoi(value)
			case "title":
				e.Title = value
			case "country":
				e.Country = value
			case "city":
				e.City = value
			case "server":
				e.Server = value
			}
		}
		entries = append(entries, e)
	}
	return entries, reply.Size, nil
}
