package worldtest

import (
	"testing"

	"gridhaul.gg/internal/protocol"
	world "gridhaul.gg/internal/sim/world"
)

// A resumed world keeps the whole economy: paved roads, facilities with
// their stock, the fleet, and any route a truck was mid-way through.
func TestSnapshotResume_KeepsEconomyState(t *testing.T) {
	h := newHarness(t)

	h.SetCell(world.Vec2i{X: 8, Y: 2}, "TREE")
	h.SetCell(world.Vec2i{X: 9, Y: 1}, "TREE")

	road := make([][2]int, 0, 6)
	for x := 2; x <= 7; x++ {
		road = append(road, [2]int{x, 0})
	}
	obs := h.Step([]protocol.InstantReq{{ID: "r1", Type: "BUILD_ROAD", Cells: road}})
	if !actionResultOK(obs, "r1") {
		t.Fatalf("BUILD_ROAD failed: code=%s", actionResultCode(obs, "r1"))
	}
	obs = h.Step([]protocol.InstantReq{{ID: "f1", Type: "BUILD_FACILITY", Cell: cellPtr(8, 0), Facility: "LUMBER_CAMP"}})
	if !actionResultOK(obs, "f1") {
		t.Fatalf("BUILD_FACILITY failed: code=%s", actionResultCode(obs, "f1"))
	}
	h.AddFacilityStore(world.Vec2i{X: 8, Y: 0}, "WOOD", 40)
	obs = h.Step([]protocol.InstantReq{{
		ID: "a1", Type: "ASSIGN_ROUTE", TruckID: "TRK1",
		Source: cellPtr(8, 0), Dest: cellPtr(0, 0), Resource: "WOOD", Repeat: true,
	}})
	if !actionResultOK(obs, "a1") {
		t.Fatalf("ASSIGN_ROUTE failed: code=%s", actionResultCode(obs, "a1"))
	}
	for i := 0; i < 20; i++ {
		obs = h.StepNoop()
	}

	before, found := truckByID(obs, "TRK1")
	if !found || before.State == "IDLE" {
		t.Fatalf("TRK1 should be mid-route before snapshot, state=%s", before.State)
	}
	bmatsBefore := invCount(obs.Base.Inventory, "BMATS")

	_, snap := h.Snapshot()
	w2, err := world.FromSnapshot(world.WorldConfig{ID: "w_test", Seed: 7}, testTuning(), snap)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	h2 := NewHarnessWithWorld(t, w2, "resumed")
	obs2 := h2.StepNoop()

	if got := invCount(obs2.Base.Inventory, "BMATS"); got != bmatsBefore {
		t.Fatalf("BMATS after resume = %d, want %d", got, bmatsBefore)
	}
	camp, found := facilityAt(obs2, [2]int{8, 0})
	if !found || !camp.Connected {
		t.Fatalf("lumber camp lost or disconnected after resume (found=%v)", found)
	}
	if camp.Rate != 400 {
		t.Fatalf("rate after resume = %d milli/sec, want 400", camp.Rate)
	}
	if len(obs2.Trucks) != 2 {
		t.Fatalf("fleet size after resume = %d, want 2", len(obs2.Trucks))
	}
	after, found := truckByID(obs2, "TRK1")
	if !found || after.State == "IDLE" {
		t.Fatalf("TRK1 route lost on resume, state=%s", after.State)
	}
	if !after.Repeat {
		t.Fatalf("repeat flag lost on resume")
	}

	// The resumed world keeps hauling to completion.
	obs2 = stepUntil(t, h2, 2000, func(o protocol.ObsMsg) bool {
		return invCount(o.Base.Inventory, "WOOD") >= 20
	})
	if got := invCount(obs2.Base.Inventory, "WOOD"); got < 20 {
		t.Fatalf("WOOD after resumed haul = %d, want >= 20", got)
	}
}
