package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 captures the full deterministic world state. Written off the
// world goroutine; the header line is plain JSON so external tools can
// identify a snapshot without decoding the gob body.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed      int64 `json:"seed"`
	TickRate  int   `json:"tick_rate_hz"`
	ObsRadius int   `json:"obs_radius"`
	BoundaryR int   `json:"boundary_r"`

	TreePermille  int `json:"tree_permille"`
	StonePermille int `json:"stone_permille"`

	TuningDigest string `json:"tuning_digest"`

	BaseCell  [2]int         `json:"base_cell"`
	Inventory map[string]int `json:"inventory"`

	TrucksBuilt int `json:"trucks_built"`

	Chunks     []ChunkV1    `json:"chunks"`
	Facilities []FacilityV1 `json:"facilities"`
	Trucks     []TruckV1    `json:"trucks"`

	Counters CountersV1 `json:"counters"`
}

type CountersV1 struct {
	NextClient uint64 `json:"next_client"`
	NextTruck  uint64 `json:"next_truck"`
}

type ChunkV1 struct {
	CX    int     `json:"cx"`
	CY    int     `json:"cy"`
	Cells []uint8 `json:"cells"`
}

type FacilityV1 struct {
	Cell         [2]int         `json:"cell"`
	Kind         string         `json:"kind"`
	NodeCount    int            `json:"node_count"`
	StoredMilli  map[string]int `json:"stored_milli"`
	ConvertTicks int            `json:"convert_ticks,omitempty"`
}

type TruckV1 struct {
	ID       string `json:"id"`
	PosMilli [2]int `json:"pos_milli"`
	State    string `json:"state"`
	Cargo    string `json:"cargo,omitempty"`
	CargoQty int    `json:"cargo_qty,omitempty"`
	Repeat   bool   `json:"repeat,omitempty"`

	Route *RouteV1 `json:"route,omitempty"`

	LegTarget     [2]int   `json:"leg_target,omitempty"`
	Path          [][2]int `json:"path,omitempty"`
	TransferTicks int      `json:"transfer_ticks,omitempty"`
	WaitQty       int      `json:"wait_qty,omitempty"`
}

type RouteV1 struct {
	Source   [2]int `json:"source"`
	Dest     [2]int `json:"dest"`
	Resource string `json:"resource"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Skip the header line; the gob body carries the header too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
