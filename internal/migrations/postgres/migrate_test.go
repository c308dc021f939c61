package postgres

import (
	"strings"
	"testing"
)

func TestNames_Ordered(t *testing.T) {
	names, err := Names()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) < 2 {
		t.Fatalf("expected embedded migrations, got %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("migrations out of order: %v", names)
		}
	}
}

func TestActiveHoldUniqueness(t *testing.T) {
	sql, err := migrationFiles.ReadFile("0001_property_holds.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if !strings.Contains(string(sql), "WHERE status = 'ACTIVE'") {
		t.Error("property_holds must carry a partial unique index on ACTIVE holds")
	}
}
