package log

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"gridhaul.gg/internal/sim/world"
)

// segmentWriter appends JSON lines into hour-long zstd segments, one file
// per UTC hour. Every record is followed by an encoder flush, so a crash
// loses at most the entry in flight and every segment on disk stays
// decodable. Reopening an existing segment appends a fresh zstd frame;
// readers see the concatenation.
type segmentWriter struct {
	dir    string
	prefix string
	now    func() time.Time // swapped in rotation tests

	mu    sync.Mutex
	since time.Time // start of the open segment's hour, zero when closed
	file  *os.File
	zw    *zstd.Encoder
	jw    *json.Encoder
}

func newSegmentWriter(dir, prefix string) *segmentWriter {
	return &segmentWriter{dir: dir, prefix: prefix, now: time.Now}
}

func (s *segmentWriter) append(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hour := s.now().UTC().Truncate(time.Hour)
	if s.zw == nil || !hour.Equal(s.since) {
		if err := s.openLocked(hour); err != nil {
			return err
		}
	}
	if err := s.jw.Encode(v); err != nil {
		return err
	}
	return s.zw.Flush()
}

func (s *segmentWriter) openLocked(hour time.Time) error {
	if err := s.shutLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("%s-%s.jsonl.zst", s.prefix, hour.Format("20060102T15"))
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	s.file = f
	s.zw = zw
	s.jw = json.NewEncoder(zw)
	s.since = hour
	return nil
}

func (s *segmentWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutLocked()
}

func (s *segmentWriter) shutLocked() error {
	var err error
	if s.zw != nil {
		err = s.zw.Close()
		s.zw = nil
		s.jw = nil
	}
	if s.file != nil {
		if cerr := s.file.Close(); err == nil {
			err = cerr
		}
		s.file = nil
	}
	s.since = time.Time{}
	return err
}

// TickLogger records one entry per simulated tick under <worldDir>/ticks.
// The tick log is the source of truth for replays.
type TickLogger struct{ s *segmentWriter }

func NewTickLogger(worldDir string) *TickLogger {
	return &TickLogger{s: newSegmentWriter(filepath.Join(worldDir, "ticks"), "ticks")}
}

func (l *TickLogger) WriteTick(e world.TickLogEntry) error { return l.s.append(e) }
func (l *TickLogger) Close() error                         { return l.s.Close() }

// AuditLogger records world mutations under <worldDir>/audit.
type AuditLogger struct{ s *segmentWriter }

func NewAuditLogger(worldDir string) *AuditLogger {
	return &AuditLogger{s: newSegmentWriter(filepath.Join(worldDir, "audit"), "audit")}
}

func (l *AuditLogger) WriteAudit(e world.AuditEntry) error { return l.s.append(e) }
func (l *AuditLogger) Close() error                        { return l.s.Close() }
