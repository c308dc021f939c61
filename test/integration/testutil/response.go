package testutil

import (
	"encoding/json"
	"testing"

	"brokerage/pkg/client"
)

func AssertStatusCode(t *testing.T, resp *client.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d: %s", expected, resp.StatusCode, string(resp.Body))
	}
}

// DecodeData unwraps the {"data": ...} envelope.
func DecodeData(t *testing.T, resp *client.Response, target any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.DecodeJSON(&envelope); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
}

func ErrorCode(t *testing.T, resp *client.Response) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Code
}
