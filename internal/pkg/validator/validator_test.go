package validator

import (
	"testing"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"overslept", false},
		{" traffic ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2024-05-01", "2000-12-31"}
	invalid := []string{"2024-13-01", "2024-01-32", "2024/01/01", "01-05-2024", ""}
	for _, s := range valid {
		if _, ok := IsValidDate(s); !ok {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if _, ok := IsValidDate(s); ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestIsValidMonth(t *testing.T) {
	valid := []string{"2024-05", "1999-12"}
	invalid := []string{"2024-13", "2024-5", "2024-05-01", "05-2024", ""}
	for _, s := range valid {
		if _, ok := IsValidMonth(s); !ok {
			t.Errorf("IsValidMonth(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if _, ok := IsValidMonth(s); ok {
			t.Errorf("IsValidMonth(%q) = true, want false", s)
		}
	}
}

func TestIsValidClock(t *testing.T) {
	valid := []string{"09:00", "00:00", "23:59", "17:30"}
	invalid := []string{"9:00", "24:00", "12:60", "0900", "09:00:00", ""}
	for _, s := range valid {
		if !IsValidClock(s) {
			t.Errorf("IsValidClock(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsValidClock(s) {
			t.Errorf("IsValidClock(%q) = true, want false", s)
		}
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "date", Message: "invalid"},
		{Field: "check_in_time", Message: "required"},
	}
	got := errs.Error()
	want := "date: invalid; check_in_time: required"
	if got != want {
		t.Errorf("ValidationErrors.Error() = %q, want %q", got, want)
	}
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "date", Message: "invalid"},
		{Field: "check_in_time", Message: "required"},
	}
	got := errs.ToMap()
	want := map[string]string{"date": "invalid", "check_in_time": "required"}
	if len(got) != len(want) {
		t.Errorf("ValidationErrors.ToMap() length = %d, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ValidationErrors.ToMap()[%q] = %q, want %q", k, got[k], v)
		}
	}
}
