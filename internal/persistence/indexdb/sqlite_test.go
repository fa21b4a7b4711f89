package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	"gridhaul.gg/internal/persistence/snapshot"
	"gridhaul.gg/internal/sim/tuning"
	"gridhaul.gg/internal/sim/world"
)

func TestSQLiteIndex_WritesLand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := idx.UpsertTuning(tuning.Defaults()); err != nil {
		t.Fatalf("upsert tuning: %v", err)
	}

	_ = idx.WriteTick(world.TickLogEntry{
		Tick:   7,
		Joins:  []world.RecordedJoin{{ClientID: "C1", Name: "ops"}},
		Digest: "abc",
	})
	_ = idx.WriteAudit(world.AuditEntry{
		Tick: 7, Actor: "C1", Action: "BUILD_ROAD", Cell: [2]int{3, 0},
	})
	_ = idx.WriteAudit(world.AuditEntry{
		Tick: 9, Actor: "TRK1", Action: "DELIVERY", Cell: [2]int{0, 0},
		Detail: map[string]any{"resource": "WOOD", "qty": 5},
	})
	idx.RecordSnapshot("/tmp/snap.zst", snapshot.SnapshotV1{
		Header: snapshot.Header{Version: 1, WorldID: "w", Tick: 3000},
		Seed:   42,
		Chunks: []snapshot.ChunkV1{{}},
		Trucks: []snapshot.TruckV1{{}, {}},
	})

	// Close drains the writer goroutine and commits.
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	count := func(q string, args ...any) int {
		t.Helper()
		var n int
		if err := db.QueryRow(q, args...).Scan(&n); err != nil {
			t.Fatalf("query %q: %v", q, err)
		}
		return n
	}

	if n := count(`SELECT COUNT(*) FROM ticks WHERE tick=7 AND digest='abc'`); n != 1 {
		t.Fatalf("ticks rows = %d, want 1", n)
	}
	if n := count(`SELECT COUNT(*) FROM joins WHERE client_id='C1'`); n != 1 {
		t.Fatalf("joins rows = %d, want 1", n)
	}
	if n := count(`SELECT COUNT(*) FROM audits`); n != 2 {
		t.Fatalf("audit rows = %d, want 2", n)
	}
	if n := count(`SELECT COUNT(*) FROM deliveries WHERE truck_id='TRK1' AND resource='WOOD' AND qty=5`); n != 1 {
		t.Fatalf("delivery rows = %d, want 1", n)
	}
	if n := count(`SELECT COUNT(*) FROM snapshots WHERE tick=3000 AND trucks=2`); n != 1 {
		t.Fatalf("snapshot rows = %d, want 1", n)
	}

	var digest string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key='tuning_digest'`).Scan(&digest); err != nil {
		t.Fatalf("tuning digest row: %v", err)
	}
	if digest != tuning.Defaults().Digest() {
		t.Fatalf("stored tuning digest mismatch")
	}
}
