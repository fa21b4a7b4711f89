package world

import "gridhaul.gg/internal/protocol"

// systemTrucks advances every truck one tick: movement along the current
// leg, then batch transfers at endpoints. Trucks are processed in id order
// so replays stay deterministic.
func (w *World) systemTrucks(nowTick uint64) {
	for _, id := range w.sortedTruckIDs() {
		t := w.trucks[id]
		switch t.State {
		case TruckMovingToSource, TruckMovingToBase:
			w.truckMove(t, nowTick)
		case TruckLoading:
			w.truckLoad(t, nowTick)
		case TruckUnloading:
			w.truckUnload(t, nowTick)
		case TruckWaitingForBmats:
			w.truckWaitBmats(t, nowTick)
		}
	}
}

func (w *World) routeFail(t *Truck, nowTick uint64, msg string) {
	t.clearRoute()
	w.broadcastEvent(protocol.Event{
		"t":        nowTick,
		"type":     "ROUTE_FAIL",
		"truck_id": t.ID,
		"code":     protocol.ErrNoPath,
		"msg":      msg,
	})
}

// truckMove spends this tick's speed budget walking the path. If the next
// cell was bulldozed out of the grid the leg is re-planned from wherever
// the truck stands.
func (w *World) truckMove(t *Truck, nowTick uint64) {
	if len(t.Path) > 0 && !w.cells.Get(t.Path[0]).driveable() {
		if !w.replanLeg(t) {
			w.routeFail(t, nowTick, "road removed, no path to target")
			return
		}
	}

	budget := w.tune.TruckSpeedMilli / w.tune.TickRateHz
	for budget > 0 && len(t.Path) > 0 {
		target := cellCenterMilli(t.Path[0])
		dx := target.X - t.PosMilli.X
		dy := target.Y - t.PosMilli.Y
		dist := absInt(dx) + absInt(dy)
		if dist <= budget {
			t.PosMilli = target
			t.Path = t.Path[1:]
			budget -= dist
			continue
		}
		// Path cells are 4-connected, so only one axis differs at a time.
		if dx != 0 {
			t.PosMilli.X += clampMag(dx, budget)
		} else {
			t.PosMilli.Y += clampMag(dy, budget)
		}
		budget = 0
	}

	if len(t.Path) == 0 && t.Cell() == t.LegTarget {
		w.truckArrive(t, nowTick)
	}
}

func clampMag(v, mag int) int {
	if v > mag {
		return mag
	}
	if v < -mag {
		return -mag
	}
	return v
}

func (w *World) replanLeg(t *Truck) bool {
	start, ok := w.nearestDriveable(t.Cell())
	if !ok {
		return false
	}
	path, ok := w.findPath(start, t.LegTarget)
	if !ok {
		return false
	}
	if start != t.Cell() {
		path = append([]Vec2i{start}, path...)
	}
	t.Path = path
	return true
}

// truckArrive flips a truck from driving to transferring. The transfer
// direction follows the leg's intent, not endpoint identity: a route may
// start and end on the same cell (base-sourced refinery runs), so arriving
// "at the source" is only loading when the truck was outbound.
func (w *World) truckArrive(t *Truck, nowTick uint64) {
	if t.Route == nil {
		t.State = TruckIdle
		return
	}
	t.TransferTicks = 0
	if t.State == TruckMovingToSource {
		t.State = TruckLoading
	} else {
		t.State = TruckUnloading
	}
}

// startLeg points the truck at a new leg target, failing the route when no
// path exists.
func (w *World) startLeg(t *Truck, target Vec2i, state TruckState, nowTick uint64) {
	path, ok := w.findPath(t.Cell(), target)
	if !ok {
		w.routeFail(t, nowTick, "no path to leg target")
		return
	}
	t.LegTarget = target
	t.Path = path
	t.State = state
	if len(path) == 0 {
		w.truckArrive(t, nowTick)
	}
}

// transferDue decrements the per-truck transfer countdown and reports
// whether a batch may move this tick.
func (t *Truck) transferDue() bool {
	if t.TransferTicks > 0 {
		t.TransferTicks--
		return false
	}
	return true
}

func (w *World) truckLoad(t *Truck, nowTick uint64) {
	if t.Route == nil {
		t.State = TruckIdle
		return
	}
	if !t.transferDue() {
		return
	}
	res := t.Route.Resource
	batch := w.tune.BatchSize
	room := w.tune.CargoCapacity - t.CargoQty

	avail := 0
	var src *Facility
	if t.Route.Source == w.baseCell {
		avail = w.inventory[res]
	} else {
		src = w.facilities[t.Route.Source]
		if src == nil {
			w.routeFail(t, nowTick, "source facility removed")
			return
		}
		avail = src.StoredWhole(res)
	}

	// One batch per interval; the last batch from a near-dry source may be
	// partial (min of batch size, available, remaining room).
	amt := batch
	if avail < amt {
		amt = avail
	}
	if room < amt {
		amt = room
	}
	if amt > 0 {
		if src != nil {
			src.StoredMilli[res] -= amt * 1000
		} else {
			w.inventory[res] -= amt
		}
		avail -= amt
		t.Cargo = res
		t.CargoQty += amt
		t.TransferTicks = w.tune.TransferIntervalTicks
	}

	// Depart with a full hold, or with whatever is aboard once the source
	// runs dry. An empty truck keeps waiting at the source.
	if t.CargoQty == w.tune.CargoCapacity || (t.CargoQty > 0 && avail == 0) {
		w.startLeg(t, t.Route.Dest, TruckMovingToBase, nowTick)
	}
}

func (w *World) truckUnload(t *Truck, nowTick uint64) {
	if t.Route == nil {
		t.State = TruckIdle
		return
	}
	if !t.transferDue() {
		return
	}
	batch := w.tune.BatchSize
	if t.CargoQty < batch {
		batch = t.CargoQty
	}

	if t.LegTarget == w.baseCell {
		if batch > 0 {
			w.inventory[t.Cargo] += batch
			t.CargoQty -= batch
			t.TransferTicks = w.tune.TransferIntervalTicks
			w.broadcastEvent(protocol.Event{
				"t":        nowTick,
				"type":     "DELIVERY",
				"truck_id": t.ID,
				"resource": t.Cargo,
				"qty":      batch,
			})
			w.auditEvent(nowTick, t.ID, "DELIVERY", w.baseCell, map[string]any{
				"resource": t.Cargo,
				"qty":      batch,
			})
		}
		if t.CargoQty > 0 {
			return
		}
		t.Cargo = ""
		w.truckNextTrip(t, nowTick)
		return
	}

	// Delivering into a facility (refinery stone feed).
	f := w.facilities[t.LegTarget]
	if f == nil {
		w.routeFail(t, nowTick, "dest facility removed")
		return
	}
	if batch > 0 {
		f.StoredMilli[t.Cargo] += batch * 1000
		t.WaitQty += batch
		t.CargoQty -= batch
		t.TransferTicks = w.tune.TransferIntervalTicks
	}
	if t.CargoQty > 0 {
		return
	}
	t.Cargo = ""
	t.State = TruckWaitingForBmats
	t.TransferTicks = 0
}

// truckWaitBmats parks the truck at the refinery until the stone it
// delivered has been converted, then hauls the materials home.
func (w *World) truckWaitBmats(t *Truck, nowTick uint64) {
	if t.Route == nil {
		t.State = TruckIdle
		return
	}
	f := w.facilities[t.Route.Dest]
	if f == nil {
		w.routeFail(t, nowTick, "refinery removed")
		return
	}
	if !t.transferDue() {
		return
	}
	amt := w.tune.BatchSize
	if t.WaitQty < amt {
		amt = t.WaitQty
	}
	if s := f.StoredWhole(ResBmats); s < amt {
		amt = s
	}
	if room := w.tune.CargoCapacity - t.CargoQty; room < amt {
		amt = room
	}
	if amt > 0 {
		f.StoredMilli[ResBmats] -= amt * 1000
		t.Cargo = ResBmats
		t.CargoQty += amt
		t.WaitQty -= amt
		t.TransferTicks = w.tune.TransferIntervalTicks
	}
	if t.WaitQty == 0 || t.CargoQty == w.tune.CargoCapacity {
		t.WaitQty = 0
		w.startLeg(t, w.baseCell, TruckMovingToBase, nowTick)
	}
}

// truckNextTrip decides what happens after a completed delivery at the base.
func (w *World) truckNextTrip(t *Truck, nowTick uint64) {
	if !t.Repeat {
		t.clearRoute()
		return
	}
	w.startLeg(t, t.Route.Source, TruckMovingToSource, nowTick)
}
