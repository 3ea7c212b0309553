// Package registry keeps the in-memory roster of homeowners who receive
// warning and resolution calls.
package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/aurahome/aura/pkg/models"
	"github.com/google/uuid"
)

// ErrDuplicatePhone rejects registering the same phone number twice.
var ErrDuplicatePhone = errors.New("phone number already registered")

// Registry is a mutex-guarded homeowner store keyed by phone number.
type Registry struct {
	mu    sync.RWMutex
	byNum map[string]models.Homeowner
}

func New() *Registry {
	return &Registry{byNum: make(map[string]models.Homeowner)}
}

// Register adds a homeowner. The phone number must be unique.
func (r *Registry) Register(name, phoneNumber string) (models.Homeowner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byNum[phoneNumber]; exists {
		return models.Homeowner{}, ErrDuplicatePhone
	}
	h := models.Homeowner{
		ID:           uuid.NewString(),
		Name:         name,
		PhoneNumber:  phoneNumber,
		RegisteredAt: time.Now().UTC(),
	}
	r.byNum[phoneNumber] = h
	return h, nil
}

// List returns all homeowners ordered by registration time.
func (r *Registry) List() []models.Homeowner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Homeowner, 0, len(r.byNum))
	for _, h := range r.byNum {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out
}

// Clear removes all homeowners. Used by the system reset.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byNum = make(map[string]models.Homeowner)
}
