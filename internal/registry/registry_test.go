package registry

import (
	"errors"
	"testing"
)

func TestRegisterAndList(t *testing.T) {
	r := New()
	first, err := r.Register("Ada", "+15125550100")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if first.ID == "" {
		t.Error("homeowner ID not assigned")
	}
	if _, err := r.Register("Grace", "+15125550101"); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	owners := r.List()
	if len(owners) != 2 {
		t.Fatalf("List() = %d homeowners, want 2", len(owners))
	}
	if owners[0].Name != "Ada" {
		t.Errorf("first homeowner = %s, want Ada (registration order)", owners[0].Name)
	}
}

func TestRegisterDuplicatePhoneRejected(t *testing.T) {
	r := New()
	if _, err := r.Register("Ada", "+15125550100"); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	_, err := r.Register("Impostor", "+15125550100")
	if !errors.Is(err, ErrDuplicatePhone) {
		t.Fatalf("err = %v, want ErrDuplicatePhone", err)
	}
}

func TestClear(t *testing.T) {
	r := New()
	r.Register("Ada", "+15125550100")
	r.Clear()
	if len(r.List()) != 0 {
		t.Error("registry not empty after Clear()")
	}
	if _, err := r.Register("Ada", "+15125550100"); err != nil {
		t.Errorf("re-register after clear failed: %v", err)
	}
}
