package world

// Vec2i is a grid cell coordinate.
type Vec2i struct {
	X int
	Y int
}

func (v Vec2i) ToArray() [2]int { return [2]int{v.X, v.Y} }

func v2FromArray(a [2]int) Vec2i { return Vec2i{X: a[0], Y: a[1]} }

func (v Vec2i) neighbors4() [4]Vec2i {
	return [4]Vec2i{
		{X: v.X + 1, Y: v.Y},
		{X: v.X - 1, Y: v.Y},
		{X: v.X, Y: v.Y + 1},
		{X: v.X, Y: v.Y - 1},
	}
}

func v2Less(a, b Vec2i) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// cellCenterMilli is the continuous position of a cell's midpoint,
// in milli-cells (1 cell = 1000).
func cellCenterMilli(c Vec2i) Vec2i {
	return Vec2i{X: c.X*1000 + 500, Y: c.Y*1000 + 500}
}

// milliToCell maps a continuous milli-cell position back onto the lattice.
func milliToCell(p Vec2i) Vec2i {
	return Vec2i{X: floorDiv(p.X, 1000), Y: floorDiv(p.Y, 1000)}
}

func floorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
