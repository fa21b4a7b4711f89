package world

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// stateDigest is a canonical hash of the full simulation state at a tick.
// Two runs that applied the same inputs in the same order must agree on
// every digest, which is what the replay tool checks.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	fmt.Fprintf(h, "tick=%d\n", nowTick)
	fmt.Fprintf(h, "seed=%d\n", w.cfg.Seed)
	fmt.Fprintf(h, "trucks_built=%d\n", w.trucksBuilt)

	for _, r := range resourceOrder {
		fmt.Fprintf(h, "inv %s=%d\n", r, w.inventory[r])
	}

	for _, k := range w.cells.LoadedChunkKeys() {
		d := w.cells.Chunk(k).Digest()
		fmt.Fprintf(h, "chunk %d,%d %s\n", k.CX, k.CY, hex.EncodeToString(d[:]))
	}

	for _, f := range w.sortedFacilities() {
		fmt.Fprintf(h, "fac %d,%d %s conn=%t nodes=%d convert=%d", f.Cell.X, f.Cell.Y, f.Kind, f.Connected, f.NodeCount, f.ConvertTicks)
		for _, r := range resourceOrder {
			fmt.Fprintf(h, " %s=%d", r, f.StoredMilli[r])
		}
		fmt.Fprintln(h)
	}

	for _, id := range w.sortedTruckIDs() {
		t := w.trucks[id]
		fmt.Fprintf(h, "trk %s pos=%d,%d state=%s cargo=%s/%d repeat=%t wait=%d xfer=%d path=%d",
			t.ID, t.PosMilli.X, t.PosMilli.Y, t.State, t.Cargo, t.CargoQty, t.Repeat, t.WaitQty, t.TransferTicks, len(t.Path))
		if t.Route != nil {
			fmt.Fprintf(h, " route=%d,%d>%d,%d:%s leg=%d,%d",
				t.Route.Source.X, t.Route.Source.Y, t.Route.Dest.X, t.Route.Dest.Y, t.Route.Resource, t.LegTarget.X, t.LegTarget.Y)
		}
		fmt.Fprintln(h)
	}

	return hex.EncodeToString(h.Sum(nil))
}
