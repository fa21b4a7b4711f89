package world

import "gridhaul.gg/internal/persistence/snapshot"

// ExportSnapshot serializes the world into the versioned snapshot format.
// Must be called from the world goroutine; writing the result to disk
// happens elsewhere.
func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: 1,
			WorldID: w.cfg.ID,
			Tick:    nowTick,
		},
		Seed:          w.cfg.Seed,
		TickRate:      w.tune.TickRateHz,
		ObsRadius:     w.tune.ObsRadius,
		BoundaryR:     w.tune.WorldBoundaryR,
		TreePermille:  w.tune.TreePermille,
		StonePermille: w.tune.StonePermille,
		TuningDigest:  w.tune.Digest(),
		BaseCell:      w.baseCell.ToArray(),
		Inventory:     map[string]int{},
		TrucksBuilt:   w.trucksBuilt,
		Counters: snapshot.CountersV1{
			NextClient: w.nextClientNum.Load(),
			NextTruck:  w.nextTruckNum.Load(),
		},
	}
	for _, r := range resourceOrder {
		if n := w.inventory[r]; n != 0 {
			snap.Inventory[r] = n
		}
	}

	for _, k := range w.cells.LoadedChunkKeys() {
		ch := w.cells.Chunk(k)
		cells := make([]uint8, len(ch.Cells))
		copy(cells, ch.Cells)
		snap.Chunks = append(snap.Chunks, snapshot.ChunkV1{CX: k.CX, CY: k.CY, Cells: cells})
	}

	for _, f := range w.sortedFacilities() {
		fv := snapshot.FacilityV1{
			Cell:         f.Cell.ToArray(),
			Kind:         string(f.Kind),
			NodeCount:    f.NodeCount,
			StoredMilli:  map[string]int{},
			ConvertTicks: f.ConvertTicks,
		}
		for r, v := range f.StoredMilli {
			if v != 0 {
				fv.StoredMilli[r] = v
			}
		}
		snap.Facilities = append(snap.Facilities, fv)
	}

	for _, id := range w.sortedTruckIDs() {
		t := w.trucks[id]
		tv := snapshot.TruckV1{
			ID:            t.ID,
			PosMilli:      t.PosMilli.ToArray(),
			State:         string(t.State),
			Cargo:         t.Cargo,
			CargoQty:      t.CargoQty,
			Repeat:        t.Repeat,
			LegTarget:     t.LegTarget.ToArray(),
			TransferTicks: t.TransferTicks,
			WaitQty:       t.WaitQty,
		}
		if t.Route != nil {
			tv.Route = &snapshot.RouteV1{
				Source:   t.Route.Source.ToArray(),
				Dest:     t.Route.Dest.ToArray(),
				Resource: t.Route.Resource,
			}
		}
		for _, c := range t.Path {
			tv.Path = append(tv.Path, c.ToArray())
		}
		snap.Trucks = append(snap.Trucks, tv)
	}

	return snap
}
