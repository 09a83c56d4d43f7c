package main

import (
	"context"
	"errors"
	"testing"

	"github.com/md-rashed-zaman/clinicbook/libs/runtime"
)

func TestLoadSettingsMemoryStore(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CLINIC_TIMEZONE", "Asia/Dhaka")
	t.Setenv("PORT", "8181")

	s, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings failed: %v", err)
	}
	if s.Store != storeMemory || s.Port != "8181" || s.Location.String() != "Asia/Dhaka" {
		t.Fatalf("unexpected settings %+v", s)
	}
}

func TestLoadSettingsRejectsBadValues(t *testing.T) {
	t.Setenv("STORE", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := loadSettings(); err == nil {
		t.Fatal("expected error when postgres store has no DATABASE_URL")
	}

	t.Setenv("STORE", "sqlite")
	if _, err := loadSettings(); err == nil {
		t.Fatal("expected error for unknown store")
	}

	t.Setenv("STORE", "memory")
	t.Setenv("CLINIC_TIMEZONE", "Mars/Olympus")
	if _, err := loadSettings(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestReadinessJoinsFailures(t *testing.T) {
	check := readiness([]runtime.ReadyCheck{
		{Name: "db", Check: func(context.Context) error { return nil }},
		{Name: "redis", Check: func(context.Context) error { return errors.New("refused") }},
	})
	err := check(context.Background())
	if err == nil || err.Error() != "redis: refused" {
		t.Fatalf("unexpected readiness error %v", err)
	}
}
