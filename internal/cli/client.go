package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"brokerage/internal/holds/policy"
	"brokerage/internal/holds/service"
	"brokerage/pkg/client"
	httputil "brokerage/pkg/http"
	"brokerage/pkg/model"
)

// APIError is a non-2xx answer from the hold service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, HTTP %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// HoldClient calls the hold HTTP API as the session's user.
type HoldClient struct {
	http *client.HttpClient
}

func NewHoldClient(s Session) *HoldClient {
	c := client.NewHttpClient(strings.TrimRight(s.ServerURL, "/"))
	c.Headers[httputil.HeaderUserID] = s.UserID
	c.Headers[httputil.HeaderUserRole] = s.Role
	return &HoldClient{http: c}
}

type HoldPage struct {
	Holds      []*model.PropertyHold
	TotalCount int64
	Limit      int
	Offset     int64
}

func (c *HoldClient) CreateHold(ctx context.Context, dto model.CreatePropertyHoldDto) (*model.PropertyHold, error) {
	var hold model.PropertyHold
	if err := c.post(ctx, "/api/v1/holds", dto, &hold); err != nil {
		return nil, err
	}
	return &hold, nil
}

func (c *HoldClient) ExtendHold(ctx context.Context, id string, dto model.ExtendPropertyHoldDto) (*model.PropertyHold, error) {
	var hold model.PropertyHold
	if err := c.post(ctx, "/api/v1/holds/id/"+url.PathEscape(id)+"/extend", dto, &hold); err != nil {
		return nil, err
	}
	return &hold, nil
}

func (c *HoldClient) CancelHold(ctx context.Context, id string, dto model.CancelPropertyHoldDto) (*model.PropertyHold, error) {
	var hold model.PropertyHold
	if err := c.post(ctx, "/api/v1/holds/id/"+url.PathEscape(id)+"/cancel", dto, &hold); err != nil {
		return nil, err
	}
	return &hold, nil
}

func (c *HoldClient) GetHold(ctx context.Context, id string) (*model.PropertyHold, error) {
	var hold model.PropertyHold
	if err := c.get(ctx, "/api/v1/holds/id/"+url.PathEscape(id), &hold); err != nil {
		return nil, err
	}
	return &hold, nil
}

func (c *HoldClient) ListHolds(ctx context.Context, filter model.HoldFilter, limit int, offset int64) (*HoldPage, error) {
	q := url.Values{}
	if filter.CtvID != "" {
		q.Set("ctvId", filter.CtvID)
	}
	if filter.PropertyID != "" {
		q.Set("propertyId", filter.PropertyID)
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.FormatInt(offset, 10))
	}
	path := "/api/v1/holds"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.http.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var page struct {
		Data       []*model.PropertyHold `json:"data"`
		TotalCount int64                 `json:"totalCount"`
		Limit      int                   `json:"limit"`
		Offset     int64                 `json:"offset"`
	}
	if err := resp.DecodeJSON(&page); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &HoldPage{Holds: page.Data, TotalCount: page.TotalCount, Limit: page.Limit, Offset: page.Offset}, nil
}

func (c *HoldClient) CheckHold(ctx context.Context, propertyID string) (*model.CheckPropertyHoldResponse, error) {
	var resp model.CheckPropertyHoldResponse
	if err := c.get(ctx, "/api/v1/properties/"+url.PathEscape(propertyID)+"/hold", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HoldClient) Sweep(ctx context.Context) (*service.SweepResult, error) {
	var result service.SweepResult
	if err := c.post(ctx, "/api/v1/holds/sweep", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HoldClient) GetConfig(ctx context.Context) (*policy.HoldConfig, error) {
	var cfg policy.HoldConfig
	if err := c.get(ctx, "/api/v1/holds/config", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *HoldClient) UpdateConfig(ctx context.Context, cfg policy.HoldConfig) (*policy.HoldConfig, error) {
	resp, err := c.http.PUT(ctx, "/api/v1/holds/config", cfg)
	if err != nil {
		return nil, err
	}
	var updated policy.HoldConfig
	if err := decodeData(resp, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *HoldClient) get(ctx context.Context, path string, out any) error {
	resp, err := c.http.GET(ctx, path)
	if err != nil {
		return err
	}
	return decodeData(resp, out)
}

func (c *HoldClient) post(ctx context.Context, path string, body, out any) error {
	resp, err := c.http.POST(ctx, path, body)
	if err != nil {
		return err
	}
	return decodeData(resp, out)
}

func decodeData(resp *client.Response, out any) error {
	if err := checkStatus(resp); err != nil {
		return err
	}
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := resp.DecodeJSON(&envelope); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

func checkStatus(resp *client.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	var body struct {
		Code string `json:"code"`
	}
	_ = resp.DecodeJSON(&body)
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       body.Code,
		Message:    client.GetErrorMessage(resp),
	}
}
