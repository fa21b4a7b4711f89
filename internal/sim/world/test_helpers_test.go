package world

import (
	"encoding/json"
	"fmt"
	"testing"

	"gridhaul.gg/internal/protocol"
	"gridhaul.gg/internal/sim/tuning"
)

// testTuning returns a flat world (no scattered obstacles) with plenty of
// starter materials so tests can lay roads freely.
func testTuning() tuning.Tuning {
	tn := tuning.Defaults()
	tn.TreePermille = 0
	tn.StonePermille = 0
	tn.WorldBoundaryR = 64
	tn.StarterBmats = 500
	tn.SnapshotEveryTicks = 0
	return tn
}

func newTestWorld(t *testing.T, tn tuning.Tuning) *World {
	t.Helper()
	w, err := New(WorldConfig{ID: "test", Seed: 42}, tn)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

func joinTest(w *World, name string) (string, chan []byte) {
	out := make(chan []byte, 1)
	resp := w.joinClient(name, out)
	return resp.Welcome.ClientID, out
}

var testInstSeq int

// act submits one instant as a fresh ACT envelope, advances one tick, and
// returns the observation produced by that tick.
func act(t *testing.T, w *World, clientID string, out chan []byte, inst protocol.InstantReq) protocol.ObsMsg {
	t.Helper()
	testInstSeq++
	if inst.ID == "" {
		inst.ID = fmt.Sprintf("i%d", testInstSeq)
	}
	env := ActionEnvelope{
		ClientID: clientID,
		Act: protocol.ActMsg{
			Type:            protocol.TypeAct,
			ProtocolVersion: protocol.Version,
			Tick:            w.CurrentTick(),
			ClientID:        clientID,
			Instants:        []protocol.InstantReq{inst},
		},
	}
	w.step(nil, nil, []ActionEnvelope{env})
	return lastObs(t, out)
}

func stepN(w *World, n int) {
	for i := 0; i < n; i++ {
		w.step(nil, nil, nil)
	}
}

func lastObs(t *testing.T, out chan []byte) protocol.ObsMsg {
	t.Helper()
	var obs protocol.ObsMsg
	select {
	case b := <-out:
		if err := json.Unmarshal(b, &obs); err != nil {
			t.Fatalf("decode obs: %v", err)
		}
	default:
		t.Fatalf("no obs queued")
	}
	return obs
}

// lastResult picks the most recent ACTION_RESULT out of an observation.
func lastResult(t *testing.T, obs protocol.ObsMsg) protocol.Event {
	t.Helper()
	for i := len(obs.Events) - 1; i >= 0; i-- {
		if obs.Events[i]["type"] == "ACTION_RESULT" {
			return obs.Events[i]
		}
	}
	t.Fatalf("no ACTION_RESULT in obs at tick %d", obs.Tick)
	return nil
}

func resultCode(e protocol.Event) string {
	c, _ := e["code"].(string)
	return c
}

func resultOK(e protocol.Event) bool {
	ok, _ := e["ok"].(bool)
	return ok
}

// buildRoadLine lays a straight road between two cells sharing an axis,
// endpoints included, skipping cells that are not empty.
func buildRoadLine(w *World, from, to Vec2i) {
	step := Vec2i{}
	switch {
	case from.X == to.X && from.Y < to.Y:
		step = Vec2i{Y: 1}
	case from.X == to.X:
		step = Vec2i{Y: -1}
	case from.Y == to.Y && from.X < to.X:
		step = Vec2i{X: 1}
	default:
		step = Vec2i{X: -1}
	}
	for c := from; ; c = (Vec2i{X: c.X + step.X, Y: c.Y + step.Y}) {
		if w.cells.Get(c) == CellEmpty {
			w.cells.Set(c, CellRoad)
		}
		if c == to {
			break
		}
	}
	w.roadsDirty = true
	w.refreshConnectivity()
}

// placeFacility installs a facility directly, bypassing command checks.
func placeFacility(w *World, cell Vec2i, kind FacilityKind, nodes int) *Facility {
	w.cells.Set(cell, CellFacility)
	f := newFacility(cell, kind, nodes)
	w.facilities[cell] = f
	w.roadsDirty = true
	w.refreshConnectivity()
	return f
}
