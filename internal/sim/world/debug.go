package world

import "fmt"

// Debug helpers for black-box tests (worldtest). The server never calls
// these; they mutate state directly and must only run between ticks.

func (w *World) DebugSetCell(c Vec2i, name string) error {
	for i, n := range CellPalette {
		if n == name {
			w.cells.Set(c, CellType(i))
			w.roadsDirty = true
			return nil
		}
	}
	return fmt.Errorf("unknown cell type %q", name)
}

func (w *World) DebugAddInventory(resource string, delta int) bool {
	if !validResource(resource) {
		return false
	}
	w.inventory[resource] += delta
	return true
}

// DebugInstallFacility places a facility without charging or validating
// placement rules. Node counting still runs so production rates are real.
func (w *World) DebugInstallFacility(c Vec2i, kind FacilityKind) bool {
	if !validFacilityKind(kind) || w.facilities[c] != nil {
		return false
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
	return true
}

func (w *World) DebugAddFacilityStore(c Vec2i, resource string, qty int) bool {
	f := w.facilities[c]
	if f == nil || !validResource(resource) {
		return false
	}
	f.StoredMilli[resource] += qty * 1000
	return true
}
