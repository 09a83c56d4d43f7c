package model

import (
	"errors"
	"testing"
	"time"
)

func TestStatusTerminal(t *testing.T) {
	if StatusBooked.Terminal() {
		t.Fatal("booked must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusCanceled.Terminal() {
		t.Fatal("completed and canceled must be terminal")
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Cancelled ")
	if err != nil || s != StatusCanceled {
		t.Fatalf("expected canceled, got %q err=%v", s, err)
	}
	if _, err := ParseStatus("available"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWeekOffsContainsByCalendarDay(t *testing.T) {
	offs := WeekOffs{"2024-06-10"}
	loc := time.FixedZone("clinic", 5*3600+1800)
	if !offs.Contains(time.Date(2024, 6, 10, 23, 30, 0, 0, loc)) {
		t.Fatal("expected late evening on the week-off date to match")
	}
	if offs.Contains(time.Date(2024, 6, 17, 10, 0, 0, 0, loc)) {
		t.Fatal("same weekday a week later must not match")
	}
}

func TestNormalizeWeekOffs(t *testing.T) {
	got, err := NormalizeWeekOffs([]string{"2024-06-11", " 2024-06-10", "2024-06-11", ""})
	if err != nil {
		t.Fatalf("NormalizeWeekOffs failed: %v", err)
	}
	if len(got) != 2 || got[0] != "2024-06-10" || got[1] != "2024-06-11" {
		t.Fatalf("unexpected week-offs %v", got)
	}
	if _, err := NormalizeWeekOffs([]string{"10/06/2024"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStoreErrorIs(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStoreError("get appointment", cause)
	if !errors.Is(err, ErrStore) || !errors.Is(err, cause) {
		t.Fatalf("store error must match ErrStore and its cause: %v", err)
	}
	var se *StoreError
	if !errors.As(err, &se) || se.Op != "get appointment" {
		t.Fatalf("expected *StoreError, got %T", err)
	}
}
