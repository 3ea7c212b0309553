package readings

import (
	"context"
	"time"

	"github.com/aurahome/aura/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Service gathers one reading set per assessment, fetching weather and grid
// data concurrently. Each source falls back to synthetic data independently,
// so the control flow is identical whether the providers answered or not.
type Service struct {
	weather *WeatherClient
	grid    *GridClient
}

func NewService(weather *WeatherClient, grid *GridClient) *Service {
	return &Service{weather: weather, grid: grid}
}

// Fetch collects all available readings for a location. Never errors; a
// failed provider is replaced by tagged fallback data.
func (s *Service) Fetch(ctx context.Context, location string) models.ReadingSet {
	now := time.Now().UTC()
	set := models.ReadingSet{
		Location:  location,
		Values:    make(map[models.ReadingKind]float64),
		Sources:   make(map[string]string),
		FetchedAt: now,
	}

	var weatherVals, gridVals map[models.ReadingKind]float64
	weatherSource, gridSource := models.SourceWeatherAPI, models.SourceGridAPI

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vals, err := s.weather.Fetch(gctx, location)
		if err != nil {
			log.Warn().Err(err).Str("location", location).Msg("weather fetch failed, using fallback readings")
			vals, weatherSource = fallbackWeather(now), models.SourceFallback
		}
		weatherVals = vals
		return nil
	})
	g.Go(func() error {
		vals, err := s.grid.Fetch(gctx)
		if err != nil {
			log.Warn().Err(err).Msg("grid fetch failed, using fallback readings")
			vals, gridSource = fallbackGrid(now), models.SourceFallback
		}
		gridVals = vals
		return nil
	})
	// Both goroutines substitute fallbacks instead of failing.
	_ = g.Wait()

	for k, v := range weatherVals {
		set.Values[k] = v
	}
	for k, v := range gridVals {
		set.Values[k] = v
	}
	set.Sources["weather"] = weatherSource
	set.Sources["grid"] = gridSource
	return set
}
