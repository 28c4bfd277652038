package loadgen

import (
	"errors"
	"sort"
	"testing"
	"time"
)

func TestProfileNames(t *testing.T) {
	names := ProfileNames()
	if !sort.StringsAreSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}
	for _, want := range []string{"baseline", "spike", "stress", "endurance", "soak"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing built-in scenario %q", want)
		}
	}
}

func TestLookupProfile_Defaults(t *testing.T) {
	p, err := LookupProfile("baseline", Overrides{})
	if err != nil {
		t.Fatalf("LookupProfile: %v", err)
	}
	if p.Duration != 60*time.Second || p.Workers != 10 || p.TargetRate != 50 || p.RampUp != 10*time.Second {
		t.Errorf("baseline profile = %+v", p)
	}
}

func TestLookupProfile_Overrides(t *testing.T) {
	d := 5 * time.Second
	w := 3
	r := 12.5
	ramp := time.Duration(0) // zero is a meaningful override
	p, err := LookupProfile("spike", Overrides{
		Duration:   &d,
		Workers:    &w,
		TargetRate: &r,
		RampUp:     &ramp,
	})
	if err != nil {
		t.Fatalf("LookupProfile: %v", err)
	}
	if p.Duration != d || p.Workers != w || p.TargetRate != r || p.RampUp != 0 {
		t.Errorf("overridden profile = %+v", p)
	}
	if p.Name != "spike" {
		t.Errorf("Name = %q, want spike", p.Name)
	}
}

func TestLookupProfile_Unknown(t *testing.T) {
	_, err := LookupProfile("tsunami", Overrides{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if verr.Field != "scenario" {
		t.Errorf("field = %q, want scenario", verr.Field)
	}
}

func TestLookupProfile_InvalidOverride(t *testing.T) {
	w := 0
	_, err := LookupProfile("baseline", Overrides{Workers: &w})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if verr.Field != "workers" {
		t.Errorf("field = %q, want workers", verr.Field)
	}
}

func TestProfile_WorkerRate(t *testing.T) {
	p := Profile{Workers: 10, TargetRate: 50}
	if got := p.WorkerRate(); got != 5 {
		t.Errorf("global WorkerRate = %v, want 5", got)
	}

	p.RatePerWorker = true
	if got := p.WorkerRate(); got != 50 {
		t.Errorf("per-worker WorkerRate = %v, want 50", got)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "rate", Message: "target rate must be > 0"}
	want := "validation error on field 'rate': target rate must be > 0"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
