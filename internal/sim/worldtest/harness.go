package worldtest

import (
	"encoding/json"
	"testing"

	"gridhaul.gg/internal/persistence/snapshot"
	"gridhaul.gg/internal/protocol"
	"gridhaul.gg/internal/sim/tuning"
	world "gridhaul.gg/internal/sim/world"
)

// Harness is a small black-box test helper for driving a world via exported
// APIs:
// - Join() issues JoinRequest via StepOnce()
// - Step()/StepFor() issues ACT via StepOnce()
// - Per-client Out channels carry OBS JSON
// - Debug* world helpers provide deterministic preconditions
//
// It intentionally avoids touching world internals so tests can live outside
// the world package.
type Harness struct {
	T *testing.T
	W *world.World

	DefaultClientID string

	sessions map[string]*session
}

type session struct {
	ClientID string
	Out      chan []byte
	lastObs  protocol.ObsMsg
}

func NewHarness(t *testing.T, cfg world.WorldConfig, tune tuning.Tuning, clientName string) *Harness {
	t.Helper()

	w, err := world.New(cfg, tune)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return NewHarnessWithWorld(t, w, clientName)
}

// NewHarnessWithWorld is like NewHarness, but uses an already-constructed
// world instance. This is useful for snapshot round-trip tests where the
// snapshot is imported before join.
func NewHarnessWithWorld(t *testing.T, w *world.World, clientName string) *Harness {
	t.Helper()
	if w == nil {
		t.Fatalf("NewHarnessWithWorld: nil world")
	}

	h := &Harness{
		T:        t,
		W:        w,
		sessions: map[string]*session{},
	}
	h.DefaultClientID = h.Join(clientName)
	return h
}

func (h *Harness) Join(clientName string) string {
	h.T.Helper()

	out := make(chan []byte, 16)
	resp := make(chan world.JoinResponse, 1)
	_, _ = h.W.StepOnce([]world.JoinRequest{{
		Name: clientName,
		Out:  out,
		Resp: resp,
	}}, nil, nil)
	jr := <-resp
	if jr.Welcome.ClientID == "" {
		h.T.Fatalf("join returned empty client id")
	}
	s := &session{ClientID: jr.Welcome.ClientID, Out: out}
	h.sessions[s.ClientID] = s
	h.drainAllObs()
	return s.ClientID
}

func (h *Harness) LastObs() protocol.ObsMsg {
	return h.LastObsFor(h.DefaultClientID)
}

func (h *Harness) LastObsFor(clientID string) protocol.ObsMsg {
	h.T.Helper()
	s := h.sessions[clientID]
	if s == nil {
		h.T.Fatalf("unknown client id: %q", clientID)
	}
	return s.lastObs
}

func (h *Harness) Step(instants []protocol.InstantReq) protocol.ObsMsg {
	return h.StepFor(h.DefaultClientID, instants)
}

func (h *Harness) StepFor(clientID string, instants []protocol.InstantReq) protocol.ObsMsg {
	h.T.Helper()
	act := protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Tick:            h.W.CurrentTick(),
		ClientID:        clientID,
		Instants:        instants,
	}
	_, _ = h.W.StepOnce(nil, nil, []world.ActionEnvelope{{
		ClientID: clientID,
		Act:      act,
	}})
	h.drainAllObs()
	return h.LastObsFor(clientID)
}

func (h *Harness) StepMulti(actions []world.ActionEnvelope) {
	h.T.Helper()
	_, _ = h.W.StepOnce(nil, nil, actions)
	h.drainAllObs()
}

func (h *Harness) StepNoop() protocol.ObsMsg {
	h.T.Helper()
	_, _ = h.W.StepOnce(nil, nil, nil)
	h.drainAllObs()
	return h.LastObs()
}

// Snapshot exports the world the way the server loop does: labeled with the
// last completed tick, so an import resumes at the tick the live world runs
// next.
func (h *Harness) Snapshot() (tick uint64, snap snapshot.SnapshotV1) {
	h.T.Helper()
	cur := h.W.CurrentTick()
	if cur == 0 {
		h.T.Fatalf("Snapshot before any completed tick")
	}
	tick = cur - 1
	return tick, h.W.ExportSnapshot(tick)
}

func (h *Harness) SetCell(c world.Vec2i, name string) {
	h.T.Helper()
	if err := h.W.DebugSetCell(c, name); err != nil {
		h.T.Fatalf("DebugSetCell: %v", err)
	}
}

func (h *Harness) AddInventory(resource string, delta int) {
	h.T.Helper()
	if ok := h.W.DebugAddInventory(resource, delta); !ok {
		h.T.Fatalf("DebugAddInventory returned false")
	}
}

func (h *Harness) AddFacilityStore(c world.Vec2i, resource string, qty int) {
	h.T.Helper()
	if ok := h.W.DebugAddFacilityStore(c, resource, qty); !ok {
		h.T.Fatalf("DebugAddFacilityStore returned false")
	}
}

func (h *Harness) drainAllObs() {
	h.T.Helper()
	for _, s := range h.sessions {
		h.drainOneObs(s)
	}
}

func (h *Harness) drainOneObs(s *session) {
	h.T.Helper()
	var last []byte
	for {
		select {
		case b := <-s.Out:
			last = b
			continue
		default:
		}
		break
	}
	if len(last) == 0 {
		return
	}
	var obs protocol.ObsMsg
	if err := json.Unmarshal(last, &obs); err != nil {
		h.T.Fatalf("unmarshal OBS: %v", err)
	}
	s.lastObs = obs
}
