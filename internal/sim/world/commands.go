package world

import (
	"fmt"

	"gridhaul.gg/internal/protocol"
)

func (w *World) applyAct(cl *clientState, act protocol.ActMsg, nowTick uint64) {
	// Staleness check: accept only [now-2, now].
	if act.Tick+2 < nowTick || act.Tick > nowTick {
		cl.AddEvent(actionResult(nowTick, "ACT", false, protocol.ErrStale, "act tick out of range"))
		return
	}
	for _, inst := range act.Instants {
		w.applyInstant(cl, act.ClientID, inst, nowTick)
	}
}

func (w *World) applyInstant(cl *clientState, clientID string, inst protocol.InstantReq, nowTick uint64) {
	switch inst.Type {
	case "BUILD_ROAD":
		w.instBuildRoad(cl, clientID, inst, nowTick)
	case "BUILD_FACILITY":
		w.instBuildFacility(cl, clientID, inst, nowTick)
	case "BULLDOZE":
		w.instBulldoze(cl, clientID, inst, nowTick)
	case "ASSIGN_ROUTE":
		w.instAssignRoute(cl, inst, nowTick)
	case "SET_REPEAT":
		t := w.trucks[inst.TruckID]
		if t == nil {
			cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "truck not found"))
			return
		}
		t.Repeat = inst.Repeat
		cl.AddEvent(actionResult(nowTick, inst.ID, true, "", "ok"))
	case "CANCEL_ROUTE":
		t := w.trucks[inst.TruckID]
		if t == nil {
			cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "truck not found"))
			return
		}
		t.clearRoute()
		cl.AddEvent(actionResult(nowTick, inst.ID, true, "", "canceled"))
	case "BUY_TRUCK":
		cost := w.nextTruckCost()
		if w.inventory[ResBmats] < cost {
			cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrNoResource,
				fmt.Sprintf("need %d BMATS", cost)))
			return
		}
		w.inventory[ResBmats] -= cost
		t := w.spawnTruck()
		w.trucksBuilt++
		w.auditEvent(nowTick, clientID, "BUY_TRUCK", w.baseCell, map[string]any{"truck_id": t.ID, "cost": cost})
		cl.AddEvent(protocol.Event{"t": nowTick, "type": "ACTION_RESULT", "ref": inst.ID, "ok": true, "truck_id": t.ID})
	default:
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "unknown instant type"))
	}
}

// nextTruckCost follows the fleet cost curve: every truck on the lot,
// starters included, raises the price of the next one.
func (w *World) nextTruckCost() int {
	return w.tune.TruckBaseCost + w.tune.TruckCostStep*w.trucksBuilt
}

func instantCells(inst protocol.InstantReq) []Vec2i {
	var out []Vec2i
	if inst.Cell != nil {
		out = append(out, v2FromArray(*inst.Cell))
	}
	for _, c := range inst.Cells {
		out = append(out, v2FromArray(c))
	}
	return out
}

func (w *World) instBuildRoad(cl *clientState, clientID string, inst protocol.InstantReq, nowTick uint64) {
	cells := instantCells(inst)
	if len(cells) == 0 {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "missing cell"))
		return
	}
	built := 0
	for _, c := range cells {
		if !w.cells.InBounds(c) {
			cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget,
				fmt.Sprintf("out of bounds after %d built", built)))
			return
		}
		if w.cells.Get(c) != CellEmpty {
			cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrOccupied,
				fmt.Sprintf("cell occupied after %d built", built)))
			return
		}
		if w.inventory[ResBmats] < w.tune.RoadCostBmats {
			cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrNoResource,
				fmt.Sprintf("out of BMATS after %d built", built)))
			return
		}
		w.inventory[ResBmats] -= w.tune.RoadCostBmats
		w.cells.Set(c, CellRoad)
		w.roadsDirty = true
		built++
		w.auditEvent(nowTick, clientID, "BUILD_ROAD", c, nil)
	}
	cl.AddEvent(actionResult(nowTick, inst.ID, true, "", fmt.Sprintf("built %d", built)))
}

func (w *World) instBuildFacility(cl *clientState, clientID string, inst protocol.InstantReq, nowTick uint64) {
	if inst.Cell == nil {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "missing cell"))
		return
	}
	kind := FacilityKind(inst.Facility)
	if !validFacilityKind(kind) {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "bad facility kind"))
		return
	}
	c := v2FromArray(*inst.Cell)
	if !w.cells.InBounds(c) {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "out of bounds"))
		return
	}
	if w.cells.nearBase(c) {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "too close to base"))
		return
	}
	if w.cells.Get(c) != CellEmpty {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrOccupied, "cell occupied"))
		return
	}

	nodes := 0
	switch kind {
	case FacilityLumberCamp:
		nodes = w.countNodes(c, CellTree)
	case FacilityQuarry:
		nodes = w.countNodes(c, CellStone)
	}

	w.cells.Set(c, CellFacility)
	w.facilities[c] = newFacility(c, kind, nodes)
	w.roadsDirty = true
	w.auditEvent(nowTick, clientID, "BUILD_FACILITY", c, map[string]any{"kind": string(kind), "nodes": nodes})
	cl.AddEvent(protocol.Event{"t": nowTick, "type": "ACTION_RESULT", "ref": inst.ID, "ok": true, "nodes": nodes})
}

func (w *World) instBulldoze(cl *clientState, clientID string, inst protocol.InstantReq, nowTick uint64) {
	cells := instantCells(inst)
	if len(cells) == 0 {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "missing cell"))
		return
	}
	cleared := 0
	for _, c := range cells {
		switch w.cells.Get(c) {
		case CellBase:
			cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "cannot bulldoze base"))
			return
		case CellEmpty:
			continue
		case CellRoad:
			w.inventory[ResBmats] += w.tune.RoadRefund
			w.cells.Set(c, CellEmpty)
			w.roadsDirty = true
		case CellFacility:
			// Stored output is lost with the building.
			delete(w.facilities, c)
			w.cells.Set(c, CellEmpty)
			w.roadsDirty = true
		case CellTree, CellStone:
			w.cells.Set(c, CellEmpty)
		}
		cleared++
		w.auditEvent(nowTick, clientID, "BULLDOZE", c, nil)
	}
	cl.AddEvent(actionResult(nowTick, inst.ID, true, "", fmt.Sprintf("cleared %d", cleared)))
}

func (w *World) instAssignRoute(cl *clientState, inst protocol.InstantReq, nowTick uint64) {
	t := w.trucks[inst.TruckID]
	if t == nil {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "truck not found"))
		return
	}
	if inst.Source == nil || inst.Dest == nil {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "missing source/dest"))
		return
	}
	if !validResource(inst.Resource) {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "bad resource"))
		return
	}
	source := w.normalizeEndpoint(v2FromArray(*inst.Source))
	dest := w.normalizeEndpoint(v2FromArray(*inst.Dest))
	if source == dest {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "source equals dest"))
		return
	}
	if code, msg := w.checkEndpoint(source, inst.Resource, true); code != "" {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, code, msg))
		return
	}
	if code, msg := w.checkEndpoint(dest, inst.Resource, false); code != "" {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, code, msg))
		return
	}
	if t.CargoQty > 0 && t.Cargo != inst.Resource {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "truck carrying other cargo"))
		return
	}

	// Both legs must be drivable now; the truck stays put otherwise.
	start, ok := w.nearestDriveable(t.Cell())
	if !ok {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrNoPath, "truck is off the road grid"))
		return
	}
	toSource, ok := w.findPath(start, source)
	if !ok {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrNoPath, "no path to source"))
		return
	}
	if _, ok := w.findPath(source, dest); !ok {
		cl.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrNoPath, "no path source to dest"))
		return
	}

	t.Route = &Route{Source: source, Dest: dest, Resource: inst.Resource}
	t.Repeat = inst.Repeat
	t.WaitQty = 0
	t.TransferTicks = 0
	if start != t.Cell() {
		toSource = append([]Vec2i{start}, toSource...)
	}
	t.Path = toSource
	t.LegTarget = source
	if len(t.Path) == 0 {
		t.State = TruckLoading
	} else {
		t.State = TruckMovingToSource
	}
	cl.AddEvent(actionResult(nowTick, inst.ID, true, "", "ok"))
}

// checkEndpoint validates a normalized route endpoint. A source must be
// able to yield the routed resource; a dest must be able to take it.
func (w *World) checkEndpoint(c Vec2i, resource string, isSource bool) (code, msg string) {
	if c == w.baseCell {
		return "", "" // base stores every resource
	}
	f := w.facilities[c]
	if f == nil {
		return protocol.ErrInvalidTarget, "endpoint is not a facility or base"
	}
	if isSource {
		if f.Kind.produces() != resource {
			return protocol.ErrBadRequest, fmt.Sprintf("%s does not produce %s", f.Kind, resource)
		}
		return "", ""
	}
	// Only refineries take deliveries, and only stone.
	if f.Kind != FacilityRefinery || resource != ResStone {
		return protocol.ErrBadRequest, "facility does not accept deliveries"
	}
	return "", ""
}
