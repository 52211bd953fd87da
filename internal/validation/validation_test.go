package validation

import (
	"errors"
	"sort"
	"testing"

	"github.com/go-playground/validator/v10"
)

type sample struct {
	GuestCount    int    `json:"guest_count" validate:"min=1"`
	RSVPSubmitted string `json:"rsvp_submitted,omitempty" validate:"required"`
	NoTag         string `validate:"required"`
}

func TestNew_ReportsJSONNames(t *testing.T) {
	err := New().Struct(sample{})

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}

	var fields []string
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	sort.Strings(fields)

	want := []string{"NoTag", "guest_count", "rsvp_submitted"}
	if len(fields) != len(want) {
		t.Fatalf("fields = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("fields = %v, want %v", fields, want)
			break
		}
	}
}
