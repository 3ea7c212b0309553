// Package handlers implements the HTTP endpoints for the AURA control plane.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aurahome/aura/internal/calls"
	"github.com/aurahome/aura/internal/homestate"
	"github.com/aurahome/aura/internal/pipeline"
	"github.com/aurahome/aura/internal/registry"
	"github.com/aurahome/aura/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handlers carries the service dependencies for all endpoints.
type Handlers struct {
	version      string
	orchestrator *pipeline.Orchestrator
	home         *homestate.Store
	coordinator  *calls.Coordinator
	registry     *registry.Registry
}

func New(version string, orch *pipeline.Orchestrator, home *homestate.Store, coord *calls.Coordinator, reg *registry.Registry) *Handlers {
	return &Handlers{
		version:      version,
		orchestrator: orch,
		home:         home,
		coordinator:  coord,
		registry:     reg,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Version handles GET /version.
func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "aura-control-plane",
		"version": h.version,
	})
}

// CreateAssessment handles POST /api/v1/assessments. Readings in the request
// body take the place of a live provider fetch.
func (h *Handlers) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	var req models.AssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.orchestrator.Assess(r.Context(), req))
}

// ApplyActions handles POST /api/v1/actions.
func (h *Handlers) ApplyActions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req models.ActionBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	results, state, err := h.home.Apply(r.Context(), req.Actions)
	res := models.ActionBatchResult{
		Success:          err == nil,
		HomeState:        state,
		ActionResults:    results,
		RequestID:        req.RequestID,
		ProcessingTimeMS: float64(time.Since(start).Microseconds()) / 1000,
		Timestamp:        time.Now().UTC(),
	}
	if err != nil {
		res.Message = err.Error()
		// Validation failures are a client problem, not a server one.
		var verr *homestate.ValidationError
		if errors.As(err, &verr) {
			respondJSON(w, http.StatusUnprocessableEntity, res)
			return
		}
		respondJSON(w, http.StatusInternalServerError, res)
		return
	}
	res.Message = "action batch applied"
	respondJSON(w, http.StatusOK, res)
}

// GetHomeState handles GET /api/v1/home/state.
func (h *Handlers) GetHomeState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.home.State())
}

// ResetSystem handles POST /api/v1/home/reset. Restores the provisioned home
// state, cancels pending follow-up timers, and clears the homeowner roster.
func (h *Handlers) ResetSystem(w http.ResponseWriter, r *http.Request) {
	state := h.home.Reset()
	h.coordinator.Reset()
	h.registry.Clear()
	log.Info().Msg("system reset")
	respondJSON(w, http.StatusOK, map[string]any{
		"message":    "system reset to provisioned defaults",
		"home_state": state,
	})
}

// ListHomeowners handles GET /api/v1/homeowners.
func (h *Handlers) ListHomeowners(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"homeowners": h.registry.List(),
	})
}

// RegisterHomeowner handles POST /api/v1/homeowners.
func (h *Handlers) RegisterHomeowner(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		PhoneNumber string `json:"phone_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" || req.PhoneNumber == "" {
		respondError(w, http.StatusBadRequest, "name and phone_number are required")
		return
	}

	owner, err := h.registry.Register(req.Name, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, registry.ErrDuplicatePhone) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, owner)
}

type runRequest struct {
	Location string `json:"location"`
}

// RunPipeline handles POST /api/v1/pipeline/run.
func (h *Handlers) RunPipeline(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	respondJSON(w, http.StatusOK, h.orchestrator.Run(r.Context(), req.Location))
}

// RunPipelineWithCalls handles POST /api/v1/pipeline/run-with-calls.
func (h *Handlers) RunPipelineWithCalls(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	respondJSON(w, http.StatusOK, h.orchestrator.RunWithCalls(r.Context(), req.Location))
}

// TelephonyWebhook handles POST /webhooks/telephony. Business outcomes are
// always HTTP 200 with a status token; only a malformed body gets a 400.
// Anything else would make the provider retry indefinitely.
func (h *Handlers) TelephonyWebhook(w http.ResponseWriter, r *http.Request) {
	var event models.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondError(w, http.StatusBadRequest, "invalid webhook payload: "+err.Error())
		return
	}

	token := h.coordinator.HandleEvent(event)
	log.Debug().
		Str("call_id", event.Message.Call.ID).
		Str("type", event.Message.Type).
		Str("token", token).
		Msg("webhook handled")
	respondJSON(w, http.StatusOK, map[string]string{"status": token})
}
