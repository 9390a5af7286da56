package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ContentModerator classifies user-submitted text. The forum treats it as a
// best-effort collaborator: a moderation outage never blocks posting.
type ContentModerator interface {
	IsToxic(ctx context.Context, text string) (bool, error)
}

// HTTPModerator calls an external classifier endpoint.
type HTTPModerator struct {
	URL    string
	Client *http.Client
}

func NewHTTPModerator(url string) *HTTPModerator {
	return &HTTPModerator{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (m *HTTPModerator) IsToxic(ctx context.Context, text string) (bool, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("moderation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("moderation service returned %d", resp.StatusCode)
	}

	var out struct {
		Toxic bool `json:"toxic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("failed to decode moderation response: %w", err)
	}
	return out.Toxic, nil
}

// DisabledModerator accepts everything. Used when no classifier is configured.
type DisabledModerator struct{}

func (DisabledModerator) IsToxic(ctx context.Context, text string) (bool, error) {
	return false, nil
}
