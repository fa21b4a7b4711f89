package world

import (
	"crypto/sha256"
	"sort"
)

// CellType is the occupant of a single grid cell. Roads and obstacles are
// mutually exclusive; facility and base cells are driveable like roads.
type CellType uint8

const (
	CellEmpty CellType = iota
	CellRoad
	CellTree
	CellStone
	CellFacility
	CellBase
)

// CellPalette maps CellType values to their wire names, in palette order.
var CellPalette = []string{"EMPTY", "ROAD", "TREE", "STONE", "FACILITY", "BASE"}

func (c CellType) String() string {
	if int(c) < len(CellPalette) {
		return CellPalette[c]
	}
	return "UNKNOWN"
}

// driveable reports whether trucks may occupy the cell.
func (c CellType) driveable() bool {
	return c == CellRoad || c == CellBase || c == CellFacility
}

const chunkSize = 16

type ChunkKey struct {
	CX int
	CY int
}

type Chunk struct {
	CX, CY int
	Cells  []uint8 // len = chunkSize*chunkSize

	dirty bool
	hash  [32]byte
}

func (c *Chunk) index(x, y int) int {
	// x fastest, then y
	return x + y*chunkSize
}

func (c *Chunk) Get(x, y int) CellType {
	return CellType(c.Cells[c.index(x, y)])
}

func (c *Chunk) Set(x, y int, t CellType) {
	i := c.index(x, y)
	if c.Cells[i] == uint8(t) {
		return
	}
	c.Cells[i] = uint8(t)
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		c.hash = sha256.Sum256(c.Cells)
		c.dirty = false
	}
	return c.hash
}

// WorldGen holds the deterministic obstacle-scatter parameters.
type WorldGen struct {
	Seed      int64
	BoundaryR int // cells; 0 = unbounded

	TreePermille  int
	StonePermille int

	// BaseCell anchors the 2x2 base footprint; generation never places
	// obstacles on or directly around it.
	BaseCell Vec2i
}

// ChunkStore is the sparse cell lattice. Accessed only from the world loop
// goroutine.
type ChunkStore struct {
	gen    WorldGen
	chunks map[ChunkKey]*Chunk
}

func NewChunkStore(gen WorldGen) *ChunkStore {
	return &ChunkStore{
		gen:    gen,
		chunks: map[ChunkKey]*Chunk{},
	}
}

func (s *ChunkStore) InBounds(pos Vec2i) bool {
	if s.gen.BoundaryR > 0 {
		if pos.X < -s.gen.BoundaryR || pos.X > s.gen.BoundaryR || pos.Y < -s.gen.BoundaryR || pos.Y > s.gen.BoundaryR {
			return false
		}
	}
	return true
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CY < keys[j].CY
	})
	return keys
}

func (s *ChunkStore) Chunk(k ChunkKey) *Chunk { return s.chunks[k] }

func (s *ChunkStore) Get(pos Vec2i) CellType {
	if !s.InBounds(pos) {
		return CellEmpty
	}
	cx := floorDiv(pos.X, chunkSize)
	cy := floorDiv(pos.Y, chunkSize)
	lx := mod(pos.X, chunkSize)
	ly := mod(pos.Y, chunkSize)
	ch := s.getOrGenChunk(cx, cy)
	return ch.Get(lx, ly)
}

func (s *ChunkStore) Set(pos Vec2i, t CellType) {
	if !s.InBounds(pos) {
		return
	}
	cx := floorDiv(pos.X, chunkSize)
	cy := floorDiv(pos.Y, chunkSize)
	lx := mod(pos.X, chunkSize)
	ly := mod(pos.Y, chunkSize)
	ch := s.getOrGenChunk(cx, cy)
	ch.Set(lx, ly, t)
}

// RestoreChunk installs a chunk verbatim (snapshot import).
func (s *ChunkStore) RestoreChunk(cx, cy int, cells []uint8) {
	ch := &Chunk{
		CX:    cx,
		CY:    cy,
		Cells: make([]uint8, chunkSize*chunkSize),
	}
	copy(ch.Cells, cells)
	ch.dirty = true
	_ = ch.Digest()
	s.chunks[ChunkKey{CX: cx, CY: cy}] = ch
}

func (s *ChunkStore) getOrGenChunk(cx, cy int) *Chunk {
	k := ChunkKey{CX: cx, CY: cy}
	if ch, ok := s.chunks[k]; ok {
		return ch
	}
	ch := &Chunk{
		CX:    cx,
		CY:    cy,
		Cells: make([]uint8, chunkSize*chunkSize),
	}
	s.generateChunk(ch)
	ch.dirty = true
	_ = ch.Digest() // initialize digest
	s.chunks[k] = ch
	return ch
}

// generateChunk scatters trees and stones deterministically from the seed.
// The base footprint and its immediate ring stay clear so starter trucks
// are never boxed in.
func (s *ChunkStore) generateChunk(ch *Chunk) {
	for y := 0; y < chunkSize; y++ {
		for x := 0; x < chunkSize; x++ {
			wx := ch.CX*chunkSize + x
			wy := ch.CY*chunkSize + y

			if s.nearBase(Vec2i{X: wx, Y: wy}) {
				continue
			}

			roll := int(hash2(s.gen.Seed, wx, wy) % 1000)
			switch {
			case roll < s.gen.TreePermille:
				ch.Cells[ch.index(x, y)] = uint8(CellTree)
			case roll < s.gen.TreePermille+s.gen.StonePermille:
				ch.Cells[ch.index(x, y)] = uint8(CellStone)
			}
		}
	}
}

func (s *ChunkStore) nearBase(pos Vec2i) bool {
	b := s.gen.BaseCell
	return pos.X >= b.X-1 && pos.X <= b.X+2 && pos.Y >= b.Y-1 && pos.Y <= b.Y+2
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func hash2(seed int64, x, y int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xbf58476d1ce4e5b9)
	return mix64(v)
}
