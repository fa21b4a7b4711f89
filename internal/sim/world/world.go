package world

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"gridhaul.gg/internal/persistence/snapshot"
	"gridhaul.gg/internal/protocol"
	"gridhaul.gg/internal/sim/tuning"
)

type WorldConfig struct {
	ID   string
	Seed int64
}

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

type ActionEnvelope struct {
	ClientID string
	Act      protocol.ActMsg
}

type RecordedJoin struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
}

type RecordedAction struct {
	ClientID string          `json:"client_id"`
	Act      protocol.ActMsg `json:"act"`
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg  WorldConfig
	tune tuning.Tuning

	tick atomic.Uint64

	cells    *ChunkStore
	baseCell Vec2i

	inventory   map[string]int
	facilities  map[Vec2i]*Facility
	trucks      map[string]*Truck
	trucksBuilt int

	clients map[string]*clientState

	// reachable is the driveable set connected to the base; recomputed
	// lazily after any cell mutation.
	reachable  map[Vec2i]bool
	roadsDirty bool

	inbox chan ActionEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	nextClientNum atomic.Uint64
	nextTruckNum  atomic.Uint64

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	auditLogger AuditLogger

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type TickLogEntry struct {
	Tick    uint64           `json:"tick"`
	Joins   []RecordedJoin   `json:"joins,omitempty"`
	Leaves  []string         `json:"leaves,omitempty"`
	Actions []RecordedAction `json:"actions,omitempty"`
	Digest  string           `json:"digest"`
}

type AuditEntry struct {
	Tick   uint64         `json:"tick"`
	Actor  string         `json:"actor"`
	Action string         `json:"action"` // e.g. "BUILD_ROAD"
	Cell   [2]int         `json:"cell"`
	Detail map[string]any `json:"detail,omitempty"`
}

type clientState struct {
	Name   string
	Out    chan []byte
	events []protocol.Event
}

func (c *clientState) AddEvent(e protocol.Event) {
	c.events = append(c.events, e)
}

func New(cfg WorldConfig, tune tuning.Tuning) (*World, error) {
	if err := tune.Validate(); err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}

	base := Vec2i{X: 0, Y: 0}
	gen := WorldGen{
		Seed:          cfg.Seed,
		BoundaryR:     tune.WorldBoundaryR,
		TreePermille:  tune.TreePermille,
		StonePermille: tune.StonePermille,
		BaseCell:      base,
	}

	w := &World{
		cfg:        cfg,
		tune:       tune,
		cells:      NewChunkStore(gen),
		baseCell:   base,
		inventory:  map[string]int{ResBmats: tune.StarterBmats},
		facilities: map[Vec2i]*Facility{},
		trucks:     map[string]*Truck{},
		clients:    map[string]*clientState{},
		reachable:  map[Vec2i]bool{},
		inbox:      make(chan ActionEnvelope, 1024),
		join:       make(chan JoinRequest, 64),
		leave:      make(chan string, 64),
		stop:       make(chan struct{}),
	}

	for _, c := range w.baseCells() {
		w.cells.Set(c, CellBase)
	}
	for i := 0; i < tune.StarterTrucks; i++ {
		w.spawnTruck()
	}
	// Starters count toward the fleet cost curve.
	w.trucksBuilt = tune.StarterTrucks
	w.refreshConnectivity()
	return w, nil
}

func (w *World) spawnTruck() *Truck {
	n := w.nextTruckNum.Add(1)
	t := &Truck{
		ID:       fmt.Sprintf("TRK%d", n),
		PosMilli: cellCenterMilli(w.baseCell),
		State:    TruckIdle,
	}
	w.trucks[t.ID] = t
	return t
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetAuditLogger(l AuditLogger)                  { w.auditLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- string         { return w.leave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) TickRateHz() int {
	if w == nil {
		return 0
	}
	return w.tune.TickRateHz
}

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.tune.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingActions []ActionEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-w.inbox:
			pendingActions = append(pendingActions, env)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingActions)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingActions = pendingActions[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

func (w *World) joinClient(name string, out chan []byte) JoinResponse {
	if name == "" {
		name = "client"
	}
	idNum := w.nextClientNum.Add(1)
	clientID := fmt.Sprintf("C%d", idNum)
	w.clients[clientID] = &clientState{Name: name, Out: out}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		ClientID:        clientID,
		WorldParams: protocol.WorldParams{
			TickRateHz:    w.tune.TickRateHz,
			Seed:          w.cfg.Seed,
			BaseCell:      w.baseCell.ToArray(),
			ObsRadius:     w.tune.ObsRadius,
			TruckSpeed:    w.tune.TruckSpeedMilli,
			CargoCapacity: w.tune.CargoCapacity,
			BatchSize:     w.tune.BatchSize,
		},
		CellPalette:  CellPalette,
		TuningDigest: w.tune.Digest(),
	}
	return JoinResponse{Welcome: welcome}
}

func (w *World) handleLeave(clientID string) {
	delete(w.clients, clientID)
}

func (w *World) step(joins []JoinRequest, leaves []string, actions []ActionEnvelope) {
	nowTick := w.tick.Load()

	// Apply leaves and joins deterministically at tick boundary.
	recordedLeaves := make([]string, 0, len(leaves))
	for _, id := range leaves {
		if _, ok := w.clients[id]; ok {
			w.handleLeave(id)
			recordedLeaves = append(recordedLeaves, id)
		}
	}
	recordedJoins := make([]RecordedJoin, 0, len(joins))
	for _, req := range joins {
		resp := w.joinClient(req.Name, req.Out)
		if req.Resp != nil {
			req.Resp <- resp
		}
		recordedJoins = append(recordedJoins, RecordedJoin{ClientID: resp.Welcome.ClientID, Name: req.Name})
	}

	// Apply actions in server_receive_order (the inbox order).
	recorded := make([]RecordedAction, 0, len(actions))
	for _, env := range actions {
		cl := w.clients[env.ClientID]
		if cl == nil {
			continue
		}
		env.Act.ClientID = env.ClientID // trust session identity
		recorded = append(recorded, RecordedAction{ClientID: env.ClientID, Act: env.Act})
		w.applyAct(cl, env.Act, nowTick)
	}

	if w.roadsDirty {
		w.refreshConnectivity()
	}

	// Systems: production -> trucks.
	w.systemProduction(nowTick)
	w.systemTrucks(nowTick)

	// Build + send OBS for each client.
	for _, id := range w.sortedClientIDs() {
		cl := w.clients[id]
		if cl.Out == nil {
			cl.events = cl.events[:0]
			continue
		}
		obs := w.buildObs(id, cl, nowTick)
		b, err := json.Marshal(obs)
		if err != nil {
			continue
		}
		sendLatest(cl.Out, b)
		cl.events = cl.events[:0]
	}

	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{Tick: nowTick, Joins: recordedJoins, Leaves: recordedLeaves, Actions: recorded, Digest: digest})
	}

	// Snapshot every N ticks, starting after tick 0.
	if w.snapshotSink != nil && nowTick != 0 && w.tune.SnapshotEveryTicks > 0 {
		every := uint64(w.tune.SnapshotEveryTicks)
		if nowTick%every == 0 {
			snap := w.ExportSnapshot(nowTick)
			select {
			case w.snapshotSink <- snap:
			default:
				// Drop snapshot if sink is backed up.
			}
		}
	}

	w.tick.Add(1)
}

// StepOnce advances the world by a single tick using the same ordering
// semantics as the server. It is primarily intended for deterministic
// replays/tests.
func (w *World) StepOnce(joins []JoinRequest, leaves []string, actions []ActionEnvelope) (tick uint64, digest string) {
	tick = w.tick.Load()
	w.step(joins, leaves, actions)
	return tick, w.stateDigest(tick)
}

func (w *World) sortedClientIDs() []string {
	ids := make([]string, 0, len(w.clients))
	for id := range w.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (w *World) sortedTruckIDs() []string {
	ids := make([]string, 0, len(w.trucks))
	for id := range w.trucks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (w *World) sortedFacilities() []*Facility {
	fs := make([]*Facility, 0, len(w.facilities))
	for _, f := range w.facilities {
		fs = append(fs, f)
	}
	sort.Slice(fs, func(i, j int) bool { return v2Less(fs[i].Cell, fs[j].Cell) })
	return fs
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
