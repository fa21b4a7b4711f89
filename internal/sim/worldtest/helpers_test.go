package worldtest

import (
	"testing"

	"gridhaul.gg/internal/protocol"
	"gridhaul.gg/internal/sim/tuning"
	world "gridhaul.gg/internal/sim/world"
)

func testTuning() tuning.Tuning {
	t := tuning.Defaults()
	t.TreePermille = 0
	t.StonePermille = 0
	t.WorldBoundaryR = 64
	t.StarterBmats = 500
	t.SnapshotEveryTicks = 0
	return t
}

func newHarness(t *testing.T) *Harness {
	t.Helper()
	return NewHarness(t, world.WorldConfig{ID: "w_test", Seed: 7}, testTuning(), "ops")
}

func cellPtr(x, y int) *[2]int {
	c := [2]int{x, y}
	return &c
}

func findActionResult(obs protocol.ObsMsg, ref string) (protocol.Event, bool) {
	for _, e := range obs.Events {
		if typ, _ := e["type"].(string); typ != "ACTION_RESULT" {
			continue
		}
		if got, _ := e["ref"].(string); got == ref {
			return e, true
		}
	}
	return nil, false
}

func actionResultOK(obs protocol.ObsMsg, ref string) bool {
	e, found := findActionResult(obs, ref)
	if !found {
		return false
	}
	ok, _ := e["ok"].(bool)
	return ok
}

func actionResultCode(obs protocol.ObsMsg, ref string) string {
	e, found := findActionResult(obs, ref)
	if !found {
		return ""
	}
	code, _ := e["code"].(string)
	return code
}

func invCount(inv []protocol.ResourceAmount, resource string) int {
	for _, r := range inv {
		if r.Resource == resource {
			return r.Count
		}
	}
	return 0
}

func truckByID(obs protocol.ObsMsg, id string) (protocol.TruckObs, bool) {
	for _, tr := range obs.Trucks {
		if tr.ID == id {
			return tr, true
		}
	}
	return protocol.TruckObs{}, false
}

func facilityAt(obs protocol.ObsMsg, cell [2]int) (protocol.FacilityObs, bool) {
	for _, f := range obs.Facilities {
		if f.Cell == cell {
			return f, true
		}
	}
	return protocol.FacilityObs{}, false
}

func stepUntil(t *testing.T, h *Harness, limit int, pred func(protocol.ObsMsg) bool) protocol.ObsMsg {
	t.Helper()
	obs := h.LastObs()
	if pred(obs) {
		return obs
	}
	for i := 0; i < limit; i++ {
		obs = h.StepNoop()
		if pred(obs) {
			return obs
		}
	}
	t.Fatalf("stepUntil: predicate not satisfied within %d ticks (tick=%d)", limit, obs.Tick)
	return obs
}
