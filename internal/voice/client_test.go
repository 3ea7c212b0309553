package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aurahome/aura/internal/config"
	"github.com/aurahome/aura/pkg/models"
)

type staticHome struct {
	state models.HomeState
}

func (h staticHome) State() models.HomeState { return h.state }

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"+15125550100", "+15125550100"},
		{"15125550100", "+15125550100"},
		{"5125550100", "+15125550100"},
		{"(512) 555-0100", "+15125550100"},
		{"+442071838750", "+442071838750"},
	}
	for _, tc := range cases {
		if got := NormalizeE164(tc.in); got != tc.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSimulateModeReturnsSyntheticID(t *testing.T) {
	c := NewClient(config.VoiceConfig{}, staticHome{})

	id, err := c.PlaceWarningCall(context.Background(), "5125550100", "heat wave inbound")
	if err != nil {
		t.Fatalf("PlaceWarningCall() error: %v", err)
	}
	if !strings.HasPrefix(id, "sim_") {
		t.Errorf("call ID = %q, want sim_ prefix", id)
	}
}

func TestPlaceResolutionCallSendsProviderPayload(t *testing.T) {
	var captured map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "call-777"})
	}))
	defer srv.Close()

	home := staticHome{state: models.HomeState{
		Financials: models.FinancialData{ProfitTodayUSD: 2.85},
	}}
	c := NewClient(config.VoiceConfig{
		APIKey:        "test-key",
		PhoneNumberID: "pn-1",
		BaseURL:       srv.URL,
	}, home)

	id, err := c.PlaceResolutionCall(context.Background(), "5125550100")
	if err != nil {
		t.Fatalf("PlaceResolutionCall() error: %v", err)
	}
	if id != "call-777" {
		t.Errorf("call ID = %q, want call-777", id)
	}
	if auth != "Bearer test-key" {
		t.Errorf("auth header = %q", auth)
	}
	if captured["phoneNumberId"] != "pn-1" {
		t.Errorf("phoneNumberId = %v", captured["phoneNumberId"])
	}
	customer := captured["customer"].(map[string]any)
	if customer["number"] != "+15125550100" {
		t.Errorf("customer number = %v, want normalized +15125550100", customer["number"])
	}
	assistant := captured["assistant"].(map[string]any)
	first := assistant["firstMessage"].(string)
	if !strings.Contains(first, "$2.85") {
		t.Errorf("first message missing profit: %q", first)
	}
}

func TestPlaceCallProviderErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad number", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(config.VoiceConfig{APIKey: "k", BaseURL: srv.URL}, staticHome{})
	if _, err := c.PlaceWarningCall(context.Background(), "5125550100", "alert"); err == nil {
		t.Fatal("expected error from 400 response")
	}
}
