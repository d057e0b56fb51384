package validation

import (
	"strings"
	"testing"

	"github.com/hyperengineering/questboard/internal/types"
)

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"rec123", false},
		{"", true},
		{"   ", true},
		{"\t\n", true},
	}
	for _, tt := range tests {
		err := ValidateRequired("playerId", tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateRequired(%q) = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
		if err != nil && err.Field != "playerId" {
			t.Errorf("error.Field = %q, want playerId", err.Field)
		}
	}
}

func TestValidateRecordID(t *testing.T) {
	valid := []string{"", "recABC123xyz", "local", "rec_1-2"}
	for _, v := range valid {
		if err := ValidateRecordID("playerId", v); err != nil {
			t.Errorf("ValidateRecordID(%q) = %v, want nil", v, err)
		}
	}
	invalid := []string{"../etc", "rec/1", "rec 1", "rec?x=1", "rec#a", "rec%2F", "rec\x00"}
	for _, v := range invalid {
		if err := ValidateRecordID("playerId", v); err == nil {
			t.Errorf("ValidateRecordID(%q) = nil, want error", v)
		}
	}
}

func TestValidateStatus(t *testing.T) {
	for _, s := range []types.PlayerStatus{types.StatusActive, types.StatusInactive} {
		if err := ValidateStatus("desiredStatus", s); err != nil {
			t.Errorf("ValidateStatus(%q) = %v, want nil", s, err)
		}
	}
	for _, s := range []types.PlayerStatus{"", "active", "Away"} {
		err := ValidateStatus("desiredStatus", s)
		if err == nil {
			t.Errorf("ValidateStatus(%q) = nil, want error", s)
			continue
		}
		if err.Message != "must be one of: Active, Inactive" {
			t.Errorf("message = %q", err.Message)
		}
	}
}

func TestValidateMaxLength_CountsRunes(t *testing.T) {
	if err := ValidateMaxLength("note", strings.Repeat("ñ", 5), 5); err != nil {
		t.Errorf("5 runes with max 5 = %v, want nil", err)
	}
	if err := ValidateMaxLength("note", strings.Repeat("a", 6), 5); err == nil {
		t.Error("6 runes with max 5 = nil, want error")
	}
}

func TestValidateVerifyRequest(t *testing.T) {
	tests := []struct {
		name   string
		req    types.VerifyRequest
		fields []string
	}{
		{"valid", types.VerifyRequest{PlayerID: "rec1", Password: "pw"}, nil},
		{"missing both", types.VerifyRequest{}, []string{"playerId", "password"}},
		{"missing password", types.VerifyRequest{PlayerID: "rec1"}, []string{"password"}},
		{"path in id", types.VerifyRequest{PlayerID: "a/b", Password: "pw"}, []string{"playerId"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFields(t, ValidateVerifyRequest(tt.req), tt.fields)
		})
	}
}

func TestValidateUpdateStatusRequest(t *testing.T) {
	tests := []struct {
		name   string
		req    types.UpdateStatusRequest
		fields []string
	}{
		{"valid", types.UpdateStatusRequest{PlayerID: "rec1", DesiredStatus: types.StatusInactive, Password: "pw"}, nil},
		{"missing all", types.UpdateStatusRequest{}, []string{"playerId", "desiredStatus", "password"}},
		{"unknown status", types.UpdateStatusRequest{PlayerID: "rec1", DesiredStatus: "Away", Password: "pw"}, []string{"desiredStatus"}},
		{"missing password hides status check", types.UpdateStatusRequest{PlayerID: "rec1", DesiredStatus: "Away"}, []string{"password"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFields(t, ValidateUpdateStatusRequest(tt.req), tt.fields)
		})
	}
}

func TestValidateActivityEvent(t *testing.T) {
	note := "all good"
	if errs := ValidateActivityEvent(types.ActivityEvent{Type: types.ActivityNote, Note: &note}); len(errs) != 0 {
		t.Errorf("valid event errors = %v", errs)
	}
	if errs := ValidateActivityEvent(types.ActivityEvent{}); len(errs) != 0 {
		t.Errorf("empty event errors = %v", errs)
	}

	long := strings.Repeat("x", MaxNoteLength+1)
	assertFields(t, ValidateActivityEvent(types.ActivityEvent{Note: &long}), []string{"note"})

	// Titles carry no length limit.
	title := strings.Repeat("t", MaxNoteLength+1)
	if errs := ValidateActivityEvent(types.ActivityEvent{TaskTitle: title}); len(errs) != 0 {
		t.Errorf("long title errors = %v", errs)
	}
}

func TestCollector(t *testing.T) {
	var c Collector
	c.Add(nil)
	if c.HasErrors() {
		t.Fatal("nil error should not be collected")
	}
	c.Add(&ValidationError{Field: "a", Message: "is required"})
	if !c.HasErrors() || len(c.Errors()) != 1 {
		t.Fatalf("Errors() = %v", c.Errors())
	}
	if got := c.Errors()[0].Error(); got != "a is required" {
		t.Errorf("Error() = %q", got)
	}
}

func assertFields(t *testing.T, errs []ValidationError, want []string) {
	t.Helper()
	if len(errs) != len(want) {
		t.Fatalf("got %d errors %v, want fields %v", len(errs), errs, want)
	}
	for i, f := range want {
		if errs[i].Field != f {
			t.Errorf("errors[%d].Field = %q, want %q", i, errs[i].Field, f)
		}
	}
}
