package world

import "testing"

func TestProduction_RequiresRoadConnection(t *testing.T) {
	w := newTestWorld(t, testTuning())
	f := placeFacility(w, Vec2i{X: 6, Y: 0}, FacilityLumberCamp, 2)

	// 25 ticks = 5 seconds at 5Hz. Disconnected: nothing accrues.
	stepN(w, 25)
	if got := f.StoredWhole(ResWood); got != 0 {
		t.Fatalf("disconnected facility produced %d", got)
	}

	buildRoadLine(w, Vec2i{X: 2, Y: 0}, Vec2i{X: 5, Y: 0})
	stepN(w, 25)
	// 2 nodes * 0.2/sec * 5 sec = 2 units.
	if got := f.StoredWhole(ResWood); got != 2 {
		t.Fatalf("connected facility produced %d, want 2", got)
	}
}

func TestProduction_RateScalesWithNodes(t *testing.T) {
	w := newTestWorld(t, testTuning())
	buildRoadLine(w, Vec2i{X: 2, Y: 0}, Vec2i{X: 5, Y: 0})
	buildRoadLine(w, Vec2i{X: 0, Y: 2}, Vec2i{X: 0, Y: 5})
	small := placeFacility(w, Vec2i{X: 6, Y: 0}, FacilityQuarry, 1)
	big := placeFacility(w, Vec2i{X: 0, Y: 6}, FacilityQuarry, 5)

	stepN(w, 50) // 10 seconds
	if got := small.StoredWhole(ResStone); got != 2 {
		t.Fatalf("1-node quarry stored %d, want 2", got)
	}
	if got := big.StoredWhole(ResStone); got != 10 {
		t.Fatalf("5-node quarry stored %d, want 10", got)
	}
}

func TestRefinery_ConvertsStoneWhileConnected(t *testing.T) {
	w := newTestWorld(t, testTuning())
	buildRoadLine(w, Vec2i{X: 2, Y: 0}, Vec2i{X: 5, Y: 0})
	f := placeFacility(w, Vec2i{X: 6, Y: 0}, FacilityRefinery, 0)
	f.StoredMilli[ResStone] = 3000

	// One unit per 5 seconds.
	stepN(w, 25)
	if got := f.StoredWhole(ResBmats); got != 1 {
		t.Fatalf("refinery made %d BMATS after 5s, want 1", got)
	}
	stepN(w, 50)
	if got := f.StoredWhole(ResBmats); got != 3 {
		t.Fatalf("refinery made %d BMATS after 15s, want 3", got)
	}
	if got := f.StoredWhole(ResStone); got != 0 {
		t.Fatalf("refinery kept %d stone, want 0", got)
	}

	// Out of feedstock: progress stays at zero, nothing more appears.
	stepN(w, 50)
	if got := f.StoredWhole(ResBmats); got != 3 {
		t.Fatalf("refinery made BMATS without stone: %d", got)
	}
}
