package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the simulation constants. Rates are expressed in integer
// milli-units per second so tick math stays integral and deterministic at any
// tick rate.
type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int `yaml:"tick_rate_hz"`
	ObsRadius  int `yaml:"obs_radius"`

	// Trucks.
	TruckSpeedMilli       int `yaml:"truck_speed_milli"` // milli-cells/sec; 1200 = 1.2 cells/sec
	CargoCapacity         int `yaml:"cargo_capacity"`
	BatchSize             int `yaml:"batch_size"`
	TransferIntervalTicks int `yaml:"transfer_interval_ticks"` // ticks between batch transfers

	// Fleet expansion: the next truck costs truck_base_cost +
	// truck_cost_step*fleet_size. Starter trucks are granted, not purchased,
	// but still count toward the curve.
	TruckBaseCost int `yaml:"truck_base_cost"`
	TruckCostStep int `yaml:"truck_cost_step"`
	StarterTrucks int `yaml:"starter_trucks"`

	// Production.
	ProductionRateMilli int `yaml:"production_rate_milli"` // per resource node per second
	FacilityRadius      int `yaml:"facility_radius"`       // nodes counted within this radius
	RefinerySecsPerUnit int `yaml:"refinery_secs_per_unit"`

	// Building.
	RoadCostBmats   int `yaml:"road_cost_bmats"`
	RoadRefund      int `yaml:"road_refund_bmats"`
	StarterBmats    int `yaml:"starter_bmats"`
	RoadSearchRange int `yaml:"road_search_range"` // nearest-driveable ring search limit

	// World generation.
	WorldBoundaryR int `yaml:"world_boundary_r"`
	TreePermille   int `yaml:"tree_permille"`
	StonePermille  int `yaml:"stone_permille"`

	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",

		TickRateHz: 5,
		ObsRadius:  16,

		TruckSpeedMilli:       1200,
		CargoCapacity:         20,
		BatchSize:             5,
		TransferIntervalTicks: 5,

		TruckBaseCost: 10,
		TruckCostStep: 15,
		StarterTrucks: 2,

		ProductionRateMilli: 200,
		FacilityRadius:      5,
		RefinerySecsPerUnit: 5,

		RoadCostBmats:   1,
		RoadRefund:      1,
		StarterBmats:    10,
		RoadSearchRange: 12,

		WorldBoundaryR: 2000,
		TreePermille:   60,
		StonePermille:  15,

		SnapshotEveryTicks: 3000,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be positive")
	}
	if t.BatchSize <= 0 || t.CargoCapacity <= 0 {
		return fmt.Errorf("batch_size and cargo_capacity must be positive")
	}
	if t.CargoCapacity%t.BatchSize != 0 {
		return fmt.Errorf("cargo_capacity must be a multiple of batch_size")
	}
	if t.TruckSpeedMilli <= 0 {
		return fmt.Errorf("truck_speed_milli must be positive")
	}
	if t.TransferIntervalTicks <= 0 {
		return fmt.Errorf("transfer_interval_ticks must be positive")
	}
	return nil
}

// Digest identifies the effective tuning so clients can detect drift.
func (t Tuning) Digest() string {
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
