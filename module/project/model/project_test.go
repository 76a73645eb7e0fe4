package model

import (
	"testing"
	"time"
)

func TestCheckDates(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	after := start.Add(24 * time.Hour)
	before := start.Add(-24 * time.Hour)

	if !CheckDates(start, nil) {
		t.Error("nil due date must pass")
	}
	if !CheckDates(start, &after) {
		t.Error("due after start must pass")
	}
	if CheckDates(start, &before) {
		t.Error("due before start must fail")
	}
	if CheckDates(start, &start) {
		t.Error("due equal to start must fail")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusActive, StatusCompleted, StatusOnHold, StatusCancelled} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false", s)
		}
	}
	for _, s := range []Status{"", "active", "Done", "archived"} {
		if ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = true", s)
		}
	}
}

func TestValidPriority(t *testing.T) {
	for _, p := range []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow} {
		if !ValidPriority(p) {
			t.Errorf("ValidPriority(%q) = false", p)
		}
	}
	for _, p := range []Priority{"", "urgent", "Critical"} {
		if ValidPriority(p) {
			t.Errorf("ValidPriority(%q) = true", p)
		}
	}
}
