package world

// Road-graph queries. Trucks drive only on driveable cells (roads, the
// base footprint, facility cells), so BFS frontiers stay bounded by what
// the player has built.

// refreshConnectivity recomputes the set of driveable cells reachable from
// the base and updates facility connectivity. Called whenever the cell
// lattice changed this tick.
func (w *World) refreshConnectivity() {
	w.reachable = map[Vec2i]bool{}
	queue := make([]Vec2i, 0, 64)
	for _, c := range w.baseCells() {
		w.reachable[c] = true
		queue = append(queue, c)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range cur.neighbors4() {
			if w.reachable[n] || !w.cells.Get(n).driveable() {
				continue
			}
			w.reachable[n] = true
			queue = append(queue, n)
		}
	}
	for _, f := range w.facilities {
		f.Connected = w.reachable[f.Cell]
	}
	w.roadsDirty = false
}

// findPath runs BFS over driveable cells from one cell to another and
// returns the cells to traverse, excluding from, including to. A nil
// result with ok=false means no road connection exists.
func (w *World) findPath(from, to Vec2i) ([]Vec2i, bool) {
	if from == to {
		return []Vec2i{}, true
	}
	if !w.cells.Get(from).driveable() || !w.cells.Get(to).driveable() {
		return nil, false
	}
	prev := map[Vec2i]Vec2i{from: from}
	queue := []Vec2i{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			break
		}
		for _, n := range cur.neighbors4() {
			if _, seen := prev[n]; seen || !w.cells.Get(n).driveable() {
				continue
			}
			prev[n] = cur
			queue = append(queue, n)
		}
	}
	if _, ok := prev[to]; !ok {
		return nil, false
	}
	var path []Vec2i
	for cur := to; cur != from; cur = prev[cur] {
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

// nearestDriveable finds the closest driveable cell to pos, scanning
// expanding rings up to the configured search range. Used to re-anchor a
// truck whose cell was bulldozed out from under it.
func (w *World) nearestDriveable(pos Vec2i) (Vec2i, bool) {
	if w.cells.Get(pos).driveable() {
		return pos, true
	}
	for r := 1; r <= w.tune.RoadSearchRange; r++ {
		best := Vec2i{}
		bestDist := 0
		found := false
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if absInt(dx) != r && absInt(dy) != r {
					continue // interior rings already scanned
				}
				c := Vec2i{X: pos.X + dx, Y: pos.Y + dy}
				if !w.cells.Get(c).driveable() {
					continue
				}
				d := absInt(dx) + absInt(dy)
				if !found || d < bestDist || (d == bestDist && v2Less(c, best)) {
					best = c
					bestDist = d
					found = true
				}
			}
		}
		if found {
			return best, true
		}
	}
	return Vec2i{}, false
}

// normalizeEndpoint maps a route endpoint onto the cell trucks actually
// park at: any base-footprint cell collapses to the base anchor.
func (w *World) normalizeEndpoint(c Vec2i) Vec2i {
	if w.onBaseFootprint(c) {
		return w.baseCell
	}
	return c
}

func (w *World) onBaseFootprint(c Vec2i) bool {
	b := w.baseCell
	return c.X >= b.X && c.X <= b.X+1 && c.Y >= b.Y && c.Y <= b.Y+1
}

func (w *World) baseCells() [4]Vec2i {
	b := w.baseCell
	return [4]Vec2i{
		{X: b.X, Y: b.Y},
		{X: b.X + 1, Y: b.Y},
		{X: b.X, Y: b.Y + 1},
		{X: b.X + 1, Y: b.Y + 1},
	}
}
