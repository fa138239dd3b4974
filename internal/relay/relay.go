package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Warr10rOfOdin/dispatchwatch/internal/record"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/view"
)

const requestTimeout = 10 * time.Second

var client = &http.Client{Timeout: requestTimeout}

// Payload is the document posted to the configured relay endpoint: the
// current record set plus its aggregate counts, stamped with the send time.
type Payload struct {
	SentAt  time.Time       `json:"sent_at"`
	Counts  view.Counts     `json:"counts"`
	Records []record.Record `json:"records"`
}

// Result reports one relay attempt. Attempts are never retried
// automatically; the operator triggers the next one.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// Forward posts the payload to endpoint as JSON, authenticating with the
// shared secret. payload is typically a Payload or a caller-supplied
// json.RawMessage. A missing endpoint is a reportable failure, not a no-op.
func Forward(ctx context.Context, endpoint, secret string, payload any) Result {
	if endpoint == "" {
		return Result{Reason: "no relay endpoint configured"}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Reason: fmt.Sprintf("encode payload: %v", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Reason: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Relay-Secret", secret)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Reason: fmt.Sprintf("post: %v", err)}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Reason: fmt.Sprintf("relay endpoint returned %s", resp.Status)}
	}
	return Result{OK: true}
}
