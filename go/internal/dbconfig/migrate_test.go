package dbconfig

import (
	"fmt"
	"path"
	"testing"
)

// tern refuses gaps or duplicates in the sequence prefix.
func TestMigrationsAreContiguous(t *testing.T) {
	names, err := Migrations()
	if err != nil {
		t.Fatalf("Migrations: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no embedded migrations")
	}
	for i, name := range names {
		var seq int
		if _, err := fmt.Sscanf(path.Base(name), "%03d_", &seq); err != nil {
			t.Fatalf("%s: no sequence prefix: %v", name, err)
		}
		if seq != i+1 {
			t.Errorf("%s has sequence %d, want %d", name, seq, i+1)
		}
	}
}
