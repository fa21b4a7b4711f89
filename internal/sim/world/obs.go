package world

import "gridhaul.gg/internal/protocol"

// buildObs assembles the per-tick observation for one client. The cell
// window is centered on the base; everything else (trucks, facilities,
// inventory) is global, the world is small enough to ship whole.
func (w *World) buildObs(clientID string, cl *clientState, nowTick uint64) protocol.ObsMsg {
	obs := protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		ClientID:        clientID,
		Base: protocol.BaseObs{
			Cell:          w.baseCell.ToArray(),
			Inventory:     w.inventoryObs(),
			NextTruckCost: w.nextTruckCost(),
		},
		Cells: w.cellWindowRLE(w.baseCell, w.tune.ObsRadius),
	}

	for _, id := range w.sortedTruckIDs() {
		t := w.trucks[id]
		to := protocol.TruckObs{
			ID:       t.ID,
			Cell:     t.Cell().ToArray(),
			PosMilli: t.PosMilli.ToArray(),
			State:    string(t.State),
			Cargo:    t.Cargo,
			CargoQty: t.CargoQty,
			Repeat:   t.Repeat,
			PathLeft: len(t.Path),
		}
		if t.Route != nil {
			to.Source = t.Route.Source.ToArray()
			to.Dest = t.Route.Dest.ToArray()
		}
		obs.Trucks = append(obs.Trucks, to)
	}

	for _, f := range w.sortedFacilities() {
		res := f.Kind.produces()
		obs.Facilities = append(obs.Facilities, protocol.FacilityObs{
			Cell:      f.Cell.ToArray(),
			Kind:      string(f.Kind),
			Connected: f.Connected,
			Resource:  res,
			Stored:    f.StoredWhole(res),
			Rate:      f.rateMilli(w.tune.ProductionRateMilli),
		})
	}

	obs.Events = append(obs.Events, cl.events...)
	return obs
}

func (w *World) inventoryObs() []protocol.ResourceAmount {
	out := make([]protocol.ResourceAmount, 0, len(resourceOrder))
	for _, r := range resourceOrder {
		out = append(out, protocol.ResourceAmount{Resource: r, Count: w.inventory[r]})
	}
	return out
}

// cellWindowRLE encodes the square window around center as run-length
// pairs (count, palette id), row-major, top row first.
func (w *World) cellWindowRLE(center Vec2i, radius int) protocol.CellsObs {
	var data []int
	runType := -1
	runLen := 0
	flush := func() {
		if runLen > 0 {
			data = append(data, runLen, runType)
		}
	}
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			ct := int(w.cells.Get(Vec2i{X: center.X + dx, Y: center.Y + dy}))
			if ct == runType {
				runLen++
				continue
			}
			flush()
			runType = ct
			runLen = 1
		}
	}
	flush()
	return protocol.CellsObs{
		Center:   center.ToArray(),
		Radius:   radius,
		Encoding: "RLE",
		Data:     data,
	}
}
