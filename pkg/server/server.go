// Package server is the composition root: it builds every service from
// configuration and hands back a ready-to-serve HTTP handler.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aurahome/aura/internal/api"
	"github.com/aurahome/aura/internal/api/handlers"
	"github.com/aurahome/aura/internal/calls"
	"github.com/aurahome/aura/internal/config"
	"github.com/aurahome/aura/internal/homestate"
	"github.com/aurahome/aura/internal/pipeline"
	"github.com/aurahome/aura/internal/readings"
	"github.com/aurahome/aura/internal/registry"
	"github.com/aurahome/aura/internal/telemetry"
	"github.com/aurahome/aura/internal/voice"
	"github.com/rs/zerolog/log"
)

// Server bundles the wired application.
type Server struct {
	Handler     http.Handler
	Port        int
	Coordinator *calls.Coordinator
	Home        *homestate.Store

	shutdownTracing func(context.Context) error
}

// New builds the full service graph from environment configuration.
func New(ctx context.Context) (*Server, error) {
	cfg := config.Load()

	shutdownTracing, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	home := homestate.NewStore(cfg.Home.HomeID, cfg.Home.Location)
	tracker := calls.NewTracker()
	voiceClient := voice.NewClient(cfg.Voice, home)
	coordinator := calls.NewCoordinator(tracker, voiceClient, cfg.Calls.FollowUpDelay)
	homeowners := registry.New()

	readingsSvc := readings.NewService(
		readings.NewWeatherClient(cfg.Providers),
		readings.NewGridClient(cfg.Providers),
	)

	orchestrator := pipeline.New(readingsSvc, home, tracker, voiceClient, homeowners, cfg.Home.Location, cfg.Calls.WarningAnswerWait)

	h := handlers.New(cfg.Version, orchestrator, home, coordinator, homeowners)

	log.Info().
		Str("home_id", cfg.Home.HomeID).
		Str("location", cfg.Home.Location).
		Dur("follow_up_delay", cfg.Calls.FollowUpDelay).
		Msg("control plane assembled")

	return &Server{
		Handler:         api.NewRouter(h),
		Port:            cfg.Port,
		Coordinator:     coordinator,
		Home:            home,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Shutdown cancels outstanding follow-up timers and flushes telemetry.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Coordinator.Reset()
	return s.shutdownTracing(ctx)
}
