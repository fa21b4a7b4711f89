package worldtest

import (
	"testing"

	"gridhaul.gg/internal/protocol"
	world "gridhaul.gg/internal/sim/world"
)

// Commands carry the tick the client observed. Anything older than the
// two-tick grace window, or stamped in the future, is rejected wholesale.
func TestActWindow_StaleAndFutureTicksRejected(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 5; i++ {
		h.StepNoop()
	}

	send := func(ref string, tick uint64) protocol.ObsMsg {
		act := protocol.ActMsg{
			Type:            protocol.TypeAct,
			ProtocolVersion: protocol.Version,
			Tick:            tick,
			ClientID:        h.DefaultClientID,
			Instants:        []protocol.InstantReq{{ID: ref, Type: "BUILD_ROAD", Cell: cellPtr(3, 0)}},
		}
		h.StepMulti([]world.ActionEnvelope{{ClientID: h.DefaultClientID, Act: act}})
		return h.LastObs()
	}

	// Whole-act rejections come back with ref "ACT".
	now := h.W.CurrentTick()
	obs := send("old", now-3)
	if code := actionResultCode(obs, "ACT"); code != protocol.ErrStale {
		t.Fatalf("stale act code = %q, want %q", code, protocol.ErrStale)
	}

	now = h.W.CurrentTick()
	obs = send("future", now+1)
	if code := actionResultCode(obs, "ACT"); code != protocol.ErrStale {
		t.Fatalf("future act code = %q, want %q", code, protocol.ErrStale)
	}
	if got := invCount(obs.Base.Inventory, "BMATS"); got != 500 {
		t.Fatalf("rejected acts must not spend BMATS, have %d", got)
	}

	now = h.W.CurrentTick()
	obs = send("edge", now-2)
	if !actionResultOK(obs, "edge") {
		t.Fatalf("act at window edge rejected: code=%s", actionResultCode(obs, "edge"))
	}
}
