package world

import (
	"testing"

	"gridhaul.gg/internal/protocol"
)

func TestSnapshotRoundtrip_ResumedWorldMatchesDigests(t *testing.T) {
	tn := testTuning()
	w := newTestWorld(t, tn)
	id, out := joinTest(w, "ops")
	f := haulSetup(t, w, FacilityLumberCamp)
	f.StoredMilli[ResWood] = 40000

	act(t, w, id, out, protocol.InstantReq{
		Type: "ASSIGN_ROUTE", TruckID: "TRK1",
		Source: cellRef(8, 0), Dest: cellRef(0, 0), Resource: ResWood, Repeat: true,
	})
	stepN(w, 50) // mid-route, cargo in flight

	// The loop labels a snapshot with the tick it just finished, so after N
	// steps the export carries tick N-1 and a resume runs tick N next.
	snap := w.ExportSnapshot(w.CurrentTick() - 1)
	w2, err := FromSnapshot(WorldConfig{ID: "test"}, tn, snap)
	if err != nil {
		t.Fatalf("from snapshot: %v", err)
	}
	if w2.CurrentTick() != w.CurrentTick() {
		t.Fatalf("resumed at tick %d, live world at %d", w2.CurrentTick(), w.CurrentTick())
	}

	d1 := w.stateDigest(w.CurrentTick())
	d2 := w2.stateDigest(w2.CurrentTick())
	if d1 != d2 {
		t.Fatalf("digest mismatch after restore:\n%s\n%s", d1, d2)
	}

	// Both copies must evolve identically from here.
	for i := 0; i < 100; i++ {
		w.step(nil, nil, nil)
		w2.step(nil, nil, nil)
		tick := w.CurrentTick() - 1
		if a, b := w.stateDigest(tick), w2.stateDigest(tick); a != b {
			t.Fatalf("digest diverged at tick %d", tick)
		}
	}
}

func TestFromSnapshot_RejectsTuningMismatch(t *testing.T) {
	tn := testTuning()
	w := newTestWorld(t, tn)
	snap := w.ExportSnapshot(0)

	tn2 := tn
	tn2.CargoCapacity = 40
	if _, err := FromSnapshot(WorldConfig{ID: "test"}, tn2, snap); err == nil {
		t.Fatalf("expected tuning digest mismatch error")
	}
}
