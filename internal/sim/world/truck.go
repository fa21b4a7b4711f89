package world

type TruckState string

const (
	TruckIdle            TruckState = "IDLE"
	TruckMovingToSource  TruckState = "MOVING_TO_SOURCE"
	TruckLoading         TruckState = "LOADING"
	TruckMovingToBase    TruckState = "MOVING_TO_BASE"
	TruckUnloading       TruckState = "UNLOADING"
	TruckWaitingForBmats TruckState = "WAITING_FOR_BMATS"
)

// Route is a standing haul assignment. Source and Dest are driveable cells
// (a facility cell or any cell of the base footprint, normalized to the
// base anchor).
type Route struct {
	Source   Vec2i
	Dest     Vec2i
	Resource string
}

// Truck is a single hauler. Position is continuous in milli-cells; Path
// holds the remaining cells of the current leg, front first.
type Truck struct {
	ID       string
	PosMilli Vec2i
	State    TruckState
	Cargo    string
	CargoQty int
	Repeat   bool

	Route *Route

	// LegTarget is the cell the truck is currently driving to.
	LegTarget Vec2i
	Path      []Vec2i

	// Countdown to the next batch transfer while loading/unloading.
	TransferTicks int

	// Stone handed to a refinery that the truck is waiting to get back
	// as building materials.
	WaitQty int
}

func (t *Truck) Cell() Vec2i { return milliToCell(t.PosMilli) }

func (t *Truck) clearRoute() {
	t.Route = nil
	t.Path = nil
	t.State = TruckIdle
	t.TransferTicks = 0
	t.WaitQty = 0
}
