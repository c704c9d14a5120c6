package pool

import (
	"testing"
	"time"
)

func unixTime(sec int64) time.Time { return time.Unix(sec, 0) }

func TestStatusFromCode_Legacy(t *testing.T) {
	tests := []struct {
		code uint8
		want Status
	}{
		{0, StatusPending},
		{1, StatusOpen},
		{2, StatusActive},
		{3, StatusResolved},
		{4, StatusCancelled},
		{99, StatusUnknown},
	}
	for _, tt := range tests {
		if got := StatusFromCode(Legacy, tt.code); got != tt.want {
			t.Errorf("StatusFromCode(Legacy, %d) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestStatusFromCode_Current(t *testing.T) {
	tests := []struct {
		code uint8
		want Status
	}{
		{0, StatusOpen},
		{1, StatusActive},
		{2, StatusResolved},
		{3, StatusCancelled},
		{99, StatusUnknown},
	}
	for _, tt := range tests {
		if got := StatusFromCode(Current, tt.code); got != tt.want {
			t.Errorf("StatusFromCode(Current, %d) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusActive.IsLive() || !StatusActive.IsActive() {
		t.Error("Active should be live and active")
	}
	if StatusResolved.IsLive() {
		t.Error("Resolved should not be live")
	}
	if !StatusResolved.IsTerminal() || !StatusCancelled.IsTerminal() {
		t.Error("Resolved and Cancelled should be terminal")
	}
	if StatusOpen.IsTerminal() {
		t.Error("Open should not be terminal")
	}
}

func TestIsDueForResolution(t *testing.T) {
	now := int64(1_700_000_000)
	e := &Entry{Status: StatusActive, Deadline: now}
	if !e.IsDueForResolution(unixTime(now)) {
		t.Error("expected due at exact deadline")
	}
	if e.IsDueForResolution(unixTime(now - 1)) {
		t.Error("expected not due 1s before deadline")
	}
}

func TestIsDueForEmergencyResolution(t *testing.T) {
	now := int64(1_700_000_000)
	e := &Entry{Status: StatusActive, Deadline: now}
	if e.IsDueForEmergencyResolution(unixTime(now + 24*3600)) {
		t.Error("emergency path must not activate exactly at +24h")
	}
	if !e.IsDueForEmergencyResolution(unixTime(now + 24*3600 + 1)) {
		t.Error("emergency path should activate strictly past +24h")
	}
}
