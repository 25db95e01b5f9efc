// Package policy calls the external prediction service that decides
// whether to enter a trade. The runner executes; this client only asks.
package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"atlas-broker-runner/internal/store"
	"atlas-broker-runner/internal/trace"
	"atlas-broker-runner/internal/types"
)

// Decision is what the prediction service returns for one instrument.
type Decision struct {
	Enter         bool    `json:"enter"`
	Side          string  `json:"side"`
	ExpirationSec int     `json:"expiration_sec"`
	StakeMult     float64 `json:"stake_mult"`
	PolicyScore   float64 `json:"policy_score"`
	Reason        string  `json:"reason"`
}

// PredictRequest carries the market state the service scores.
type PredictRequest struct {
	Pair         string         `json:"pair"`
	TimeframeSec int            `json:"tf_sec,omitempty"`
	Features     map[string]any `json:"features,omitempty"`
	Session      string         `json:"session,omitempty"`
	PolicyHints  map[string]any `json:"policy_hints,omitempty"`
}

// Client talks to the prediction service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg *store.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.Policy.BaseURL, "/"),
		http: &http.Client{
			Timeout: time.Duration(cfg.Policy.TimeoutSeconds) * time.Second,
		},
	}
}

// Predict scores the market state and returns the entry decision.
func (c *Client) Predict(ctx context.Context, req PredictRequest) (Decision, error) {
	ctx, span := trace.StartSpan(ctx, "policy.Predict")
	defer span.End()

	bb, _ := json.Marshal(req)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/predict", bytes.NewReader(bb))
	if err != nil {
		return Decision{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Decision{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return Decision{}, fmt.Errorf("predict http %d: %s", resp.StatusCode, string(body))
	}

	// The service wraps the decision in a "policy" envelope; tolerate a
	// bare decision object too.
	respBytes, _ := io.ReadAll(resp.Body)
	var envelope struct {
		Policy *Decision `json:"policy"`
	}
	if err := json.Unmarshal(respBytes, &envelope); err == nil && envelope.Policy != nil {
		d := *envelope.Policy
		normalize(&d)
		return d, nil
	}
	var d Decision
	if err := json.Unmarshal(respBytes, &d); err != nil {
		return Decision{}, fmt.Errorf("predict response: %w", err)
	}
	normalize(&d)
	return d, nil
}

func normalize(d *Decision) {
	d.Side = strings.ToUpper(strings.TrimSpace(d.Side))
	if d.Side != string(types.SideCall) {
		d.Side = string(types.SidePut)
	}
	valid := false
	for _, allowed := range types.AllowedExpirations {
		if d.ExpirationSec == allowed {
			valid = true
			break
		}
	}
	if !valid {
		d.ExpirationSec = 60
	}
}
