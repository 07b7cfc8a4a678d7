package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// revocationRequest is the wire request to the revocation authority.
type revocationRequest struct {
	Digests []string `json:"digests"`
}

// revocationResponse is the wire response from the revocation authority.
type revocationResponse struct {
	Revoked []string `json:"revoked"`
}

// httpRevocationChecker implements RevocationChecker against an external HTTP
// revocation authority.
//
// Requests are never retried here: any transport failure, non-200 status or
// timeout surfaces as an error, and the caller treats that as "all potentially
// revoked". The round trip is bounded by the configured timeout.
type httpRevocationChecker struct {
	endpoint string
	client   *http.Client
}

// NewHTTPRevocationChecker creates a RevocationChecker that POSTs link digests
// to <baseURL>/revocations.
func NewHTTPRevocationChecker(baseURL string, timeout time.Duration) RevocationChecker {
	return &httpRevocationChecker{
		endpoint: strings.TrimSuffix(baseURL, "/") + "/revocations",
		client:   &http.Client{Timeout: timeout},
	}
}

// Revoked returns the subset of digests the authority reports as revoked.
func (r *httpRevocationChecker) Revoked(ctx context.Context, digests []string) ([]string, error) {
	if len(digests) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(revocationRequest{Digests: digests})
	if err != nil {
		return nil, fmt.Errorf("encode revocation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build revocation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("revocation authority unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("revocation authority returned status %d", resp.StatusCode)
	}

	var decoded revocationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode revocation response: %w", err)
	}

	return decoded.Revoked, nil
}
