package protocol

// OBS (server -> client), one per tick.
type ObsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	ClientID        string `json:"client_id"`

	Base       BaseObs       `json:"base"`
	Cells      CellsObs      `json:"cells"`
	Trucks     []TruckObs    `json:"trucks"`
	Facilities []FacilityObs `json:"facilities"`
	Events     []Event       `json:"events"`
}

type BaseObs struct {
	Cell          [2]int           `json:"cell"`
	Inventory     []ResourceAmount `json:"inventory"`
	NextTruckCost int              `json:"next_truck_cost"`
}

type ResourceAmount struct {
	Resource string `json:"resource"`
	Count    int    `json:"count"`
}

// CellsObs carries a square window of cell types around the window center.
// Encoding "RLE": pairs of (count, palette id), row-major.
type CellsObs struct {
	Center   [2]int `json:"center"`
	Radius   int    `json:"radius"`
	Encoding string `json:"encoding"`
	Data     []int  `json:"data"`
}

type TruckObs struct {
	ID       string `json:"id"`
	Cell     [2]int `json:"cell"`
	PosMilli [2]int `json:"pos_milli"`
	State    string `json:"state"`
	Cargo    string `json:"cargo,omitempty"`
	CargoQty int    `json:"cargo_qty"`
	Repeat   bool   `json:"repeat"`
	Source   [2]int `json:"source,omitempty"`
	Dest     [2]int `json:"dest,omitempty"`
	PathLeft int    `json:"path_left"`
}

type FacilityObs struct {
	Cell      [2]int `json:"cell"`
	Kind      string `json:"kind"`
	Connected bool   `json:"connected"`
	Resource  string `json:"resource"`
	Stored    int    `json:"stored"`
	Rate      int    `json:"rate_milli"` // milli-units per second
}

type Event map[string]interface{}

// ACT (client -> server)
type ActMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Tick            uint64       `json:"tick"`
	ClientID        string       `json:"client_id"`
	Instants        []InstantReq `json:"instants,omitempty"`
}

// InstantReq is a single command. Type selects which fields apply:
//
//	BUILD_ROAD     Cell
//	BUILD_FACILITY Cell, Facility
//	BULLDOZE       Cells
//	ASSIGN_ROUTE   TruckID, Source, Dest, Resource, Repeat
//	SET_REPEAT     TruckID, Repeat
//	CANCEL_ROUTE   TruckID
//	BUY_TRUCK      (none)
type InstantReq struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	Cell  *[2]int  `json:"cell,omitempty"`
	Cells [][2]int `json:"cells,omitempty"`

	Facility string `json:"facility,omitempty"`

	TruckID  string  `json:"truck_id,omitempty"`
	Source   *[2]int `json:"source,omitempty"`
	Dest     *[2]int `json:"dest,omitempty"`
	Resource string  `json:"resource,omitempty"`
	Repeat   bool    `json:"repeat,omitempty"`
}
