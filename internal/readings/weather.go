// Package readings fetches environmental and grid measurements from the
// external providers, falling back to clearly tagged synthetic data when a
// provider is unreachable. A failed source is never fatal to an assessment.
package readings

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aurahome/aura/internal/config"
	"github.com/aurahome/aura/pkg/models"
)

// WeatherClient reads current conditions from the OpenWeatherMap API.
type WeatherClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewWeatherClient(cfg config.ProviderConfig) *WeatherClient {
	return &WeatherClient{
		apiKey:  cfg.WeatherAPIKey,
		baseURL: strings.TrimRight(cfg.WeatherBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type owmResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Fetch returns the weather readings for a location, in imperial units.
func (c *WeatherClient) Fetch(ctx context.Context, location string) (map[models.ReadingKind]float64, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("weather API key not configured")
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", c.apiKey)
	q.Set("units", "imperial")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather request failed with status %d", resp.StatusCode)
	}

	var body owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}

	return map[models.ReadingKind]float64{
		models.ReadingTemperatureF: body.Main.Temp,
		models.ReadingHumidityPct:  body.Main.Humidity,
		models.ReadingWindSpeedMPH: body.Wind.Speed,
		models.ReadingHeatIndexF:   HeatIndexF(body.Main.Temp, body.Main.Humidity),
	}, nil
}

// HeatIndexF computes the NWS heat index from temperature (°F) and relative
// humidity (%). Below 80°F the heat index is the temperature itself.
func HeatIndexF(tempF, humidityPct float64) float64 {
	if tempF < 80 {
		return tempF
	}
	t, h := tempF, humidityPct
	hi := -42.379 + 2.04901523*t + 10.14333127*h -
		0.22475541*t*h - 0.00683783*t*t - 0.05481717*h*h +
		0.00122874*t*t*h + 0.00085282*t*h*h - 0.00000199*t*t*h*h
	if h < 13 && t >= 80 && t <= 112 {
		hi -= ((13 - h) / 4) * math.Sqrt((17-math.Abs(t-95))/17)
	} else if h > 85 && t >= 80 && t <= 87 {
		hi += ((h - 85) / 10) * ((87 - t) / 5)
	}
	return math.Round(hi*10) / 10
}
