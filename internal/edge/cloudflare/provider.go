package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"linkhub/internal/edge"
)

const (
	cloudflareAPIBase = "https://api.cloudflare.com/client/v4"
	requestTimeout    = 10 * time.Second
)

// Provider implements edge.Provider on the Cloudflare for SaaS
// custom hostnames API
type Provider struct {
	zoneID   string
	email    string
	apiToken string
	client   *http.Client
}

// NewProvider creates a Cloudflare custom-hostname provider for a zone
func NewProvider(zoneID, email, apiToken string) *Provider {
	return &Provider{
		zoneID:   zoneID,
		email:    email,
		apiToken: apiToken,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// customHostname represents a Cloudflare custom hostname (API response)
type customHostname struct {
	ID       string `json:"id"`
	Hostname string `json:"hostname"`
	SSL      struct {
		Status            string `json:"status"`
		ValidationRecords []struct {
			TXTName  string `json:"txt_name"`
			TXTValue string `json:"txt_value"`
		} `json:"validation_records"`
		ValidationErrors []struct {
			Message string `json:"message"`
		} `json:"validation_errors"`
	} `json:"ssl"`
}

// cloudflareResponse represents a Cloudflare API response envelope
type cloudflareResponse struct {
	Success bool              `json:"success"`
	Errors  []cloudflareError `json:"errors"`
	Result  json.RawMessage   `json:"result"`
}

// cloudflareError represents a Cloudflare API error
type cloudflareError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CreateHostname registers the hostname in the zone. Idempotent: if a custom
// hostname already exists for the domain, its id is returned instead of
// creating a duplicate.
func (p *Provider) CreateHostname(ctx context.Context, domain string) (string, error) {
	// Step 1: Look for an existing custom hostname for this domain
	existing, err := p.findHostname(ctx, domain)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}

	// Step 2: Create a new custom hostname with TXT-based DV validation
	payload := map[string]interface{}{
		"hostname": domain,
		"ssl": map[string]interface{}{
			"method": "txt",
			"type":   "dv",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/zones/%s/custom_hostnames", cloudflareAPIBase, p.zoneID)
	result, err := p.do(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var hostname customHostname
	if err := json.Unmarshal(result, &hostname); err != nil {
		return "", fmt.Errorf("failed to parse custom hostname: %w", err)
	}

	return hostname.ID, nil
}

// HostnameStatus fetches the TLS provisioning state of a custom hostname
func (p *Provider) HostnameStatus(ctx context.Context, providerHostnameID string) (*edge.HostnameStatus, error) {
	reqURL := fmt.Sprintf("%s/zones/%s/custom_hostnames/%s", cloudflareAPIBase, p.zoneID, providerHostnameID)
	result, err := p.do(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	var hostname customHostname
	if err := json.Unmarshal(result, &hostname); err != nil {
		return nil, fmt.Errorf("failed to parse custom hostname: %w", err)
	}

	status := &edge.HostnameStatus{
		SSLStatus: hostname.SSL.Status,
	}
	for _, rec := range hostname.SSL.ValidationRecords {
		status.ValidationRecords = append(status.ValidationRecords, edge.ValidationRecord{
			TXTName:  rec.TXTName,
			TXTValue: rec.TXTValue,
		})
	}
	for _, e := range hostname.SSL.ValidationErrors {
		status.Errors = append(status.Errors, e.Message)
	}

	return status, nil
}

// findHostname looks up an existing custom hostname id by domain name.
// Returns "" when none exists.
func (p *Provider) findHostname(ctx context.Context, domain string) (string, error) {
	reqURL := fmt.Sprintf("%s/zones/%s/custom_hostnames?hostname=%s",
		cloudflareAPIBase, p.zoneID, url.QueryEscape(domain))

	result, err := p.do(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	var hostnames []customHostname
	if err := json.Unmarshal(result, &hostnames); err != nil {
		return "", fmt.Errorf("failed to parse custom hostname list: %w", err)
	}

	for _, h := range hostnames {
		if strings.EqualFold(h.Hostname, domain) {
			return h.ID, nil
		}
	}
	return "", nil
}

// do executes a Cloudflare API request and returns the result payload
func (p *Provider) do(ctx context.Context, method, reqURL string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Auth-Email", p.email)
	req.Header.Set("X-Auth-Key", p.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, edge.ErrHostnameNotFound
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var cfResp cloudflareResponse
	if err := json.Unmarshal(respBody, &cfResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !cfResp.Success {
		// 1436: custom hostname not found
		for _, e := range cfResp.Errors {
			if e.Code == 1436 {
				return nil, edge.ErrHostnameNotFound
			}
		}
		return nil, fmt.Errorf("cloudflare API error: %s", formatErrors(cfResp.Errors))
	}

	return cfResp.Result, nil
}

// formatErrors formats Cloudflare API errors into a single string
func formatErrors(errs []cloudflareError) string {
	if len(errs) == 0 {
		return "unknown error"
	}
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = fmt.Sprintf("[%d] %s", e.Code, e.Message)
	}
	return strings.Join(parts, "; ")
}
