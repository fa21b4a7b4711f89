package worldtest

import (
	"testing"

	"gridhaul.gg/internal/protocol"
	world "gridhaul.gg/internal/sim/world"
)

// Full loop through the protocol surface only: pave a road, place a lumber
// camp next to trees, let it produce, then haul a full load back to the base.
func TestEconomyLoop_RoadFacilityRouteDelivery(t *testing.T) {
	h := newHarness(t)

	h.SetCell(world.Vec2i{X: 7, Y: 1}, "TREE")
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
	if got := invCount(obs.Base.Inventory, "BMATS"); got != 494 {
		t.Fatalf("BMATS after paving = %d, want 494", got)
	}

	obs = h.Step([]protocol.InstantReq{{ID: "f1", Type: "BUILD_FACILITY", Cell: cellPtr(8, 0), Facility: "LUMBER_CAMP"}})
	if !actionResultOK(obs, "f1") {
		t.Fatalf("BUILD_FACILITY failed: code=%s", actionResultCode(obs, "f1"))
	}
	res, _ := findActionResult(obs, "f1")
	if nodes, _ := res["nodes"].(float64); nodes != 3 {
		t.Fatalf("nodes = %v, want 3", res["nodes"])
	}

	for i := 0; i < 100; i++ {
		obs = h.StepNoop()
	}
	camp, found := facilityAt(obs, [2]int{8, 0})
	if !found {
		t.Fatalf("lumber camp missing from obs")
	}
	if !camp.Connected {
		t.Fatalf("lumber camp not connected")
	}
	if camp.Rate != 600 {
		t.Fatalf("rate = %d milli/sec, want 600", camp.Rate)
	}
	if camp.Stored < 12 {
		t.Fatalf("stored = %d after 100 ticks, want >= 12", camp.Stored)
	}

	// Top up so the truck finds a full load waiting.
	h.AddFacilityStore(world.Vec2i{X: 8, Y: 0}, "WOOD", 20)

	obs = h.Step([]protocol.InstantReq{{
		ID: "a1", Type: "ASSIGN_ROUTE", TruckID: "TRK1",
		Source: cellPtr(8, 0), Dest: cellPtr(0, 0), Resource: "WOOD",
	}})
	if !actionResultOK(obs, "a1") {
		t.Fatalf("ASSIGN_ROUTE failed: code=%s", actionResultCode(obs, "a1"))
	}

	obs = stepUntil(t, h, 1500, func(o protocol.ObsMsg) bool {
		tr, ok := truckByID(o, "TRK1")
		return ok && tr.State == "IDLE" && invCount(o.Base.Inventory, "WOOD") > 0
	})
	if got := invCount(obs.Base.Inventory, "WOOD"); got != 20 {
		t.Fatalf("WOOD at base = %d, want 20 (one full load)", got)
	}
	tr, _ := truckByID(obs, "TRK1")
	if tr.CargoQty != 0 {
		t.Fatalf("truck should be empty after delivery, cargo_qty=%d", tr.CargoQty)
	}
}

func TestBuyTruck_ThroughProtocol(t *testing.T) {
	h := newHarness(t)

	obs := h.StepNoop()
	if obs.Base.NextTruckCost != 40 {
		t.Fatalf("next truck cost = %d, want 40", obs.Base.NextTruckCost)
	}

	obs = h.Step([]protocol.InstantReq{{ID: "b1", Type: "BUY_TRUCK"}})
	if !actionResultOK(obs, "b1") {
		t.Fatalf("BUY_TRUCK failed: code=%s", actionResultCode(obs, "b1"))
	}
	res, _ := findActionResult(obs, "b1")
	id, _ := res["truck_id"].(string)
	if id == "" {
		t.Fatalf("BUY_TRUCK result missing truck_id")
	}

	if len(obs.Trucks) != 3 {
		t.Fatalf("fleet size = %d, want 3", len(obs.Trucks))
	}
	if got := invCount(obs.Base.Inventory, "BMATS"); got != 460 {
		t.Fatalf("BMATS = %d, want 460", got)
	}
	if obs.Base.NextTruckCost != 55 {
		t.Fatalf("next truck cost = %d, want 55", obs.Base.NextTruckCost)
	}
	tr, found := truckByID(obs, id)
	if !found || tr.State != "IDLE" {
		t.Fatalf("new truck %s not idle at base (found=%v state=%s)", id, found, tr.State)
	}
}
