package migrations

import (
	"strings"
	"testing"

	"github.com/md-rashed-zaman/clinicbook/libs/db"
)

func TestEmbeddedMigrationsLoad(t *testing.T) {
	migrations, err := db.LoadMigrations(FS, Dir)
	if err != nil {
		t.Fatalf("LoadMigrations failed: %v", err)
	}
	if len(migrations) != 4 {
		t.Fatalf("expected 4 migrations, got %d", len(migrations))
	}
	if !strings.Contains(migrations[0].SQL, "UNIQUE (doctor_id, slot)") {
		t.Fatal("core migration must enforce one appointment per doctor slot")
	}
}
