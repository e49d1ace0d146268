package db

import (
	"reflect"
	"strings"
	"testing"
)

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations() error = %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected at least one migration")
	}

	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version <= migrations[i-1].Version {
			t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
		}
	}

	first := migrations[0]
	if first.Name != "create_tables" {
		t.Errorf("Name = %q, want %q", first.Name, "create_tables")
	}
	for _, table := range []string{"users", "spotify_credentials", "playlist_history"} {
		if !strings.Contains(first.Up, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("up migration does not create %s", table)
		}
		if !strings.Contains(first.Down, "DROP TABLE IF EXISTS "+table) {
			t.Errorf("down migration does not drop %s", table)
		}
	}
}

func TestSplitStatements(t *testing.T) {
	script := `
-- leading comment
CREATE TABLE a (id TEXT); -- trailing comment

CREATE INDEX idx ON a (id);
;
`
	want := []string{"CREATE TABLE a (id TEXT)", "CREATE INDEX idx ON a (id)"}
	if got := splitStatements(script); !reflect.DeepEqual(got, want) {
		t.Errorf("splitStatements() = %q, want %q", got, want)
	}
}
