package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ClientName      string            `json:"client_name"`
	Capabilities    HelloCapabilities `json:"capabilities"`
}

type HelloCapabilities struct {
	DeltaCells bool `json:"delta_cells,omitempty"`
	MaxQueue   int  `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	ClientID        string      `json:"client_id"`
	WorldParams     WorldParams `json:"world_params"`
	CellPalette     []string    `json:"cell_palette"`
	TuningDigest    string      `json:"tuning_digest"`
}

type WorldParams struct {
	TickRateHz    int    `json:"tick_rate_hz"`
	Seed          int64  `json:"seed"`
	BaseCell      [2]int `json:"base_cell"`
	ObsRadius     int    `json:"obs_radius"`
	TruckSpeed    int    `json:"truck_speed_milli"` // milli-cells per second
	CargoCapacity int    `json:"cargo_capacity"`
	BatchSize     int    `json:"batch_size"`
}
