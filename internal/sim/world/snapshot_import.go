package world

import (
	"fmt"

	"gridhaul.gg/internal/persistence/snapshot"
	"gridhaul.gg/internal/sim/tuning"
)

// FromSnapshot rebuilds a world from a snapshot. Tuning comes from the
// current config file; the snapshot's tuning digest is checked so a
// resumed world cannot silently run under different rules.
func FromSnapshot(cfg WorldConfig, tune tuning.Tuning, snap snapshot.SnapshotV1) (*World, error) {
	if snap.Header.Version != 1 {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	if snap.TuningDigest != "" && snap.TuningDigest != tune.Digest() {
		return nil, fmt.Errorf("tuning digest mismatch: snapshot %s, config %s", snap.TuningDigest, tune.Digest())
	}
	cfg.Seed = snap.Seed
	w, err := New(cfg, tune)
	if err != nil {
		return nil, err
	}

	// New() seeded starter state; replace it wholesale.
	w.inventory = map[string]int{}
	for r, n := range snap.Inventory {
		w.inventory[r] = n
	}
	w.trucks = map[string]*Truck{}
	w.facilities = map[Vec2i]*Facility{}
	w.trucksBuilt = snap.TrucksBuilt
	w.nextClientNum.Store(snap.Counters.NextClient)
	w.nextTruckNum.Store(snap.Counters.NextTruck)

	for _, cv := range snap.Chunks {
		if len(cv.Cells) != chunkSize*chunkSize {
			return nil, fmt.Errorf("chunk %d,%d: bad cell count %d", cv.CX, cv.CY, len(cv.Cells))
		}
		w.cells.RestoreChunk(cv.CX, cv.CY, cv.Cells)
	}

	for _, fv := range snap.Facilities {
		kind := FacilityKind(fv.Kind)
		if !validFacilityKind(kind) {
			return nil, fmt.Errorf("facility at %v: unknown kind %q", fv.Cell, fv.Kind)
		}
		f := newFacility(v2FromArray(fv.Cell), kind, fv.NodeCount)
		f.ConvertTicks = fv.ConvertTicks
		for r, v := range fv.StoredMilli {
			f.StoredMilli[r] = v
		}
		w.facilities[f.Cell] = f
	}

	for _, tv := range snap.Trucks {
		t := &Truck{
			ID:            tv.ID,
			PosMilli:      v2FromArray(tv.PosMilli),
			State:         TruckState(tv.State),
			Cargo:         tv.Cargo,
			CargoQty:      tv.CargoQty,
			Repeat:        tv.Repeat,
			LegTarget:     v2FromArray(tv.LegTarget),
			TransferTicks: tv.TransferTicks,
			WaitQty:       tv.WaitQty,
		}
		if tv.Route != nil {
			t.Route = &Route{
				Source:   v2FromArray(tv.Route.Source),
				Dest:     v2FromArray(tv.Route.Dest),
				Resource: tv.Route.Resource,
			}
		}
		for _, c := range tv.Path {
			t.Path = append(t.Path, v2FromArray(c))
		}
		w.trucks[t.ID] = t
	}

	// Snapshots are cut after their labeled tick has run, so the resumed
	// world starts at the tick that follows it.
	w.tick.Store(snap.Header.Tick + 1)
	w.refreshConnectivity()
	return w, nil
}
