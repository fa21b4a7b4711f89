package world

import (
	"testing"

	"gridhaul.gg/internal/protocol"
)

func TestBuyTruck_CostCurve(t *testing.T) {
	w := newTestWorld(t, testTuning())
	id, out := joinTest(w, "ops")

	// Two starter trucks on the lot: the third costs 10 + 15*2.
	w.step(nil, nil, nil)
	obs := lastObs(t, out)
	if obs.Base.NextTruckCost != 40 {
		t.Fatalf("next truck cost = %d, want 40", obs.Base.NextTruckCost)
	}
	if len(obs.Trucks) != 2 {
		t.Fatalf("starter trucks = %d, want 2", len(obs.Trucks))
	}

	obs = act(t, w, id, out, protocol.InstantReq{Type: "BUY_TRUCK"})
	res := lastResult(t, obs)
	if !resultOK(res) {
		t.Fatalf("buy failed: %v", res)
	}
	if got := invCount(obs, ResBmats); got != 460 {
		t.Fatalf("BMATS = %d, want 460", got)
	}
	if len(obs.Trucks) != 3 {
		t.Fatalf("fleet = %d, want 3", len(obs.Trucks))
	}
	if obs.Base.NextTruckCost != 55 {
		t.Fatalf("next truck cost = %d, want 55", obs.Base.NextTruckCost)
	}

	// New truck spawns idle at the base.
	tid, _ := res["truck_id"].(string)
	tr := w.trucks[tid]
	if tr == nil || tr.State != TruckIdle || tr.Cell() != w.baseCell {
		t.Fatalf("bad new truck: %+v", tr)
	}
}

func TestBuyTruck_InsufficientBmats(t *testing.T) {
	tn := testTuning()
	tn.StarterBmats = 39
	w := newTestWorld(t, tn)
	id, out := joinTest(w, "ops")

	obs := act(t, w, id, out, protocol.InstantReq{Type: "BUY_TRUCK"})
	res := lastResult(t, obs)
	if resultCode(res) != protocol.ErrNoResource {
		t.Fatalf("want E_NO_RESOURCE, got %v", res)
	}
	if len(w.trucks) != 2 {
		t.Fatalf("fleet grew on failed purchase")
	}
}
