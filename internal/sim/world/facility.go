package world

// Resource ids.
const (
	ResWood  = "WOOD"
	ResStone = "STONE"
	ResBmats = "BMATS"
)

var resourceOrder = []string{ResBmats, ResStone, ResWood}

func validResource(r string) bool {
	return r == ResWood || r == ResStone || r == ResBmats
}

type FacilityKind string

const (
	FacilityLumberCamp FacilityKind = "LUMBER_CAMP"
	FacilityQuarry     FacilityKind = "QUARRY"
	FacilityRefinery   FacilityKind = "REFINERY"
)

func validFacilityKind(k FacilityKind) bool {
	return k == FacilityLumberCamp || k == FacilityQuarry || k == FacilityRefinery
}

// produces returns the resource a facility kind yields to trucks.
func (k FacilityKind) produces() string {
	switch k {
	case FacilityLumberCamp:
		return ResWood
	case FacilityQuarry:
		return ResStone
	case FacilityRefinery:
		return ResBmats
	}
	return ""
}

// Facility is a placed production building. Storage is tracked in
// milli-units so fractional per-tick accrual stays integral.
type Facility struct {
	Cell Vec2i
	Kind FacilityKind

	// Connected is recomputed from road-graph reachability to the base
	// whenever the road grid changes.
	Connected bool

	// NodeCount is the number of trees (lumber camp) or stones (quarry)
	// within the facility radius, counted at placement. Refineries have 0.
	NodeCount int

	StoredMilli map[string]int

	// Refinery conversion progress, in ticks.
	ConvertTicks int
}

func newFacility(cell Vec2i, kind FacilityKind, nodeCount int) *Facility {
	return &Facility{
		Cell:        cell,
		Kind:        kind,
		NodeCount:   nodeCount,
		StoredMilli: map[string]int{},
	}
}

// StoredWhole is the quantity trucks can actually load.
func (f *Facility) StoredWhole(resource string) int {
	return f.StoredMilli[resource] / 1000
}

// rateMilli is the facility's output in milli-units per second.
func (f *Facility) rateMilli(perNodeMilli int) int {
	switch f.Kind {
	case FacilityLumberCamp, FacilityQuarry:
		return f.NodeCount * perNodeMilli
	case FacilityRefinery:
		return perNodeMilli
	}
	return 0
}

// systemProduction accrues facility output. A facility produces only while
// connected to the base by roads; refineries additionally need stone on hand
// and convert one stone per refinery interval.
func (w *World) systemProduction(nowTick uint64) {
	perTickMilli := func(nodes int) int {
		return nodes * w.tune.ProductionRateMilli / w.tune.TickRateHz
	}
	convertTicks := w.tune.RefinerySecsPerUnit * w.tune.TickRateHz

	for _, f := range w.sortedFacilities() {
		if !f.Connected {
			continue
		}
		switch f.Kind {
		case FacilityLumberCamp:
			f.StoredMilli[ResWood] += perTickMilli(f.NodeCount)
		case FacilityQuarry:
			f.StoredMilli[ResStone] += perTickMilli(f.NodeCount)
		case FacilityRefinery:
			if f.StoredMilli[ResStone] < 1000 {
				f.ConvertTicks = 0
				continue
			}
			f.ConvertTicks++
			if f.ConvertTicks >= convertTicks {
				f.StoredMilli[ResStone] -= 1000
				f.StoredMilli[ResBmats] += 1000
				f.ConvertTicks = 0
				w.auditEvent(nowTick, "WORLD", "REFINE", f.Cell, map[string]any{
					"stone_left": f.StoredWhole(ResStone),
					"bmats":      f.StoredWhole(ResBmats),
				})
			}
		}
	}
}

// countNodes counts trees or stones within the facility radius (Euclidean,
// matching the placement preview circle).
func (w *World) countNodes(center Vec2i, want CellType) int {
	r := w.tune.FacilityRadius
	r2 := r * r
	count := 0
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			if w.cells.Get(Vec2i{X: center.X + dx, Y: center.Y + dy}) == want {
				count++
			}
		}
	}
	return count
}
