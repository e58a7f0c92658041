package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gothyxan/storefront/internal/domain"
)

const defaultLookupTimeout = 5 * time.Second

var errGeoEndpointRequired = errors.New("geo client: endpoint is required")

// ClientDeps bundles constructor inputs for the geolocation client.
type ClientDeps struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client resolves the caller's location through one external HTTP lookup.
// Failures are returned to the caller, which degrades rather than surfaces
// them.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
	timeout  time.Duration
}

// NewClient constructs the geolocation client.
func NewClient(deps ClientDeps) (*Client, error) {
	if deps.Endpoint == "" {
		return nil, errGeoEndpointRequired
	}
	client := deps.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &Client{
		endpoint: deps.Endpoint,
		apiKey:   deps.APIKey,
		client:   client,
		timeout:  timeout,
	}, nil
}

// Lookup fetches the geo record for the given visitor address. An empty ip
// asks the service to resolve the caller instead, which only makes sense in
// tests.
func (c *Client) Lookup(ctx context.Context, ip string) (domain.GeoRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	if c.apiKey != "" {
		query.Set("apiKey", c.apiKey)
	}
	if ip != "" {
		query.Set("ip", ip)
	}
	target := c.endpoint
	if encoded := query.Encode(); encoded != "" {
		target = c.endpoint + "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.GeoRecord{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return domain.GeoRecord{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.GeoRecord{}, fmt.Errorf("geo client: unexpected status %d", resp.StatusCode)
	}

	var record domain.GeoRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return domain.GeoRecord{}, err
	}
	return record, nil
}
