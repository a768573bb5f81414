package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/reconkit/orgscan/internal/model"
	"github.com/reconkit/orgscan/internal/query"
	"github.com/reconkit/orgscan/internal/session"
)

const defaultQuakeBase = "https://quake.360.cn/api/v3"

// Quake queries the Quake asset-search API. Unlike the GET-style
// backends it takes a JSON request body and authenticates through the
// X-QuakeToken header.
type Quake struct {
	client
}

// NewQuake creates a Quake backend.
func NewQuake(httpClient *http.Client, creds *session.Store, opts ...Option) *Quake {
	return &Quake{newClient(httpClient, creds, defaultQuakeBase, opts...)}
}

// Name implements Backend.
func (q *Quake) Name() string { return ServiceQuake }

// Dialect implements Backend.
func (q *Quake) Dialect() query.Dialect { return query.DialectQuake }

// quakeRequest is the search request body.
type quakeRequest struct {
	Query string `json:"query"`
	Start int    `json:"start"`
	Size  int    `json:"size"`
}

// quakeReply is the search response envelope.
type quakeReply struct {
	Message string     `json:"message"`
	Data    []quakeRow `json:"data"`
	Meta    struct {
		Total int `json:"total"`
	} `json:"meta"`
}

// quakeRow is one native result record. Web attributes nest under
// service.http; geography nests under location with cn/en variants.
type quakeRow struct {
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Domain   string `json:"domain"`
	Hostname string `json:"hostname"`
	Service  struct {
		Name string `json:"name"`
		HTTP struct {
			Title  string `json:"title"`
			Server string `json:"server"`
		} `json:"http"`
	} `json:"service"`
	Location struct {
		CountryCN string `json:"country_cn"`
		CountryEN string `json:"country_en"`
		CityCN    string `json:"city_cn"`
		CityEN    string `json:"city_en"`
	} `json:"location"`
}

// Search implements Backend.
func (q *Quake) Search(ctx context.Context, translated string, limit int) ([]model.Entry, int, error) {
	cred, err := q.creds.Get(ServiceQuake)
	if err != nil {
		return nil, 0, model.WrapFailure(model.FailureConfiguration, "no quake credentials", err)
	}

	body, err := json.Marshal(quakeRequest{Query: translated, Start: 0, Size: limit})
	if err != nil {
		return nil, 0, model.WrapFailure(model.FailureConfiguration, "encoding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		q.base+"/search/quake_service", bytes.NewReader(body))
	if err != nil {
		return nil, 0, model.WrapFailure(model.FailureConfiguration, "building request", err)
	}
	req.Header.Set("X-QuakeToken", cred.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var reply quakeReply
	if err := q.doJSON(req, &reply); err != nil {
		return nil, 0, err
	}

	entries := make([]model.Entry, 0, len(reply.Data))
	for _, row := range reply.Data {
		host := row.Domain
		if host == "" {
			host = row.Hostname
		}
		server := row.Service.HTTP.Server
		if server == "" {
			server = row.Service.Name
		}
		country := row.Location.CountryCN
		if country == "" {
			country = row.Location.CountryEN
		}
		city := row.Location.CityCN
		if city == "" {
			city = row.Location.CityEN
		}
		entries = append(entries, model.Entry{
			Host:    host,
			IP:      row.IP,
			Port:    row.Port,
			Title:   row.Service.HTTP.Title,
			Country: country,
			City:    city,
			Server:  server,
			Backend: ServiceQuake,
		})
	}
	return entries, reply.Meta.Total, nil
}
