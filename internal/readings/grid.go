package readings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aurahome/aura/internal/config"
	"github.com/aurahome/aura/pkg/models"
)

// GridClient reads hourly balancing-authority demand from the EIA API.
type GridClient struct {
	apiKey     string
	baseURL    string
	respondent string
	httpClient *http.Client
}

// respondents maps grid authority names to EIA respondent codes.
var respondents = map[string]string{
	"ERCOT": "ERCO",
	"CAISO": "CISO",
	"MISO":  "MISO",
	"PJM":   "PJM",
}

func NewGridClient(cfg config.ProviderConfig) *GridClient {
	respondent, ok := respondents[cfg.GridAuthority]
	if !ok {
		respondent = cfg.GridAuthority
	}
	return &GridClient{
		apiKey:     cfg.GridAPIKey,
		baseURL:    strings.TrimRight(cfg.GridBaseURL, "/"),
		respondent: respondent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type eiaResponse struct {
	Response struct {
		Data []struct {
			Value float64 `json:"value"`
		} `json:"data"`
	} `json:"response"`
}

// Fetch returns the latest demand reading for the configured authority.
func (c *GridClient) Fetch(ctx context.Context) (map[models.ReadingKind]float64, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("grid API key not configured")
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("frequency", "hourly")
	q.Set("data[0]", "value")
	q.Set("facets[respondent][]", c.respondent)
	q.Set("facets[type][]", "D")
	q.Set("sort[0][column]", "period")
	q.Set("sort[0][direction]", "desc")
	q.Set("length", "1")

	endpoint := c.baseURL + "/electricity/rto/region-data/data/?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create grid request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grid request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("grid request failed with status %d", resp.StatusCode)
	}

	var body eiaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode grid response: %w", err)
	}
	if len(body.Response.Data) == 0 {
		return nil, fmt.Errorf("grid response contained no demand rows")
	}

	return map[models.ReadingKind]float64{
		models.ReadingGridDemandMW: body.Response.Data[0].Value,
	}, nil
}
