package database

import (
	"strings"
	"testing"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	for _, migration := range migrations {
		data, err := migrationsFS.ReadFile(migration)
		if err != nil {
			t.Fatalf("migration %s not embedded: %v", migration, err)
		}
		if !strings.Contains(string(data), "IF NOT EXISTS") {
			t.Errorf("migration %s must be idempotent", migration)
		}
	}
}
