package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gridhaul.gg/internal/persistence/indexdb"
	persistlog "gridhaul.gg/internal/persistence/log"
	"gridhaul.gg/internal/persistence/snapshot"
	"gridhaul.gg/internal/sim/tuning"
	"gridhaul.gg/internal/sim/world"
	"gridhaul.gg/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 1337, "world seed (used only when starting a fresh world)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite read-model index")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	// Create world (fresh or resumed from snapshot).
	var w *world.World
	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(filepath.Join(worldDir, "snapshots"))
	}
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.WorldID != "" && snap.Header.WorldID != *worldID {
			logger.Fatalf("snapshot world id mismatch: flag=%s snap=%s", *worldID, snap.Header.WorldID)
		}
		w, err = world.FromSnapshot(world.WorldConfig{ID: *worldID, Seed: snap.Seed}, tune, snap)
		if err != nil {
			logger.Fatalf("resume world: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), w.CurrentTick())
	} else {
		w, err = world.New(world.WorldConfig{ID: *worldID, Seed: *seed}, tune)
		if err != nil {
			logger.Fatalf("world: %v", err)
		}
	}

	// Durable tick/audit logs (JSONL+zstd). These are the replay source of truth.
	tickLog := persistlog.NewTickLogger(worldDir)
	defer tickLog.Close()
	auditLog := persistlog.NewAuditLogger(worldDir)
	defer auditLog.Close()

	// Optional: read-model index (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index: upsert tuning: %v", err)
		}
	}

	w.SetTickLogger(tickFan{jsonl: tickLog, idx: idx})
	w.SetAuditLogger(auditFan{jsonl: auditLog, idx: idx})

	// Snapshot writing happens off the world loop.
	snapDir := filepath.Join(worldDir, "snapshots")
	_ = os.MkdirAll(snapDir, 0o755)
	snapCh := make(chan snapshot.SnapshotV1, 1)
	snapDone := make(chan struct{})
	go func() {
		defer close(snapDone)
		for snap := range snapCh {
			path := filepath.Join(snapDir, fmt.Sprintf("snap-%012d.snap.zst", snap.Header.Tick))
			if err := snapshot.WriteSnapshot(path, snap); err != nil {
				logger.Printf("write snapshot: %v", err)
				continue
			}
			if idx != nil {
				idx.RecordSnapshot(path, snap)
			}
			logger.Printf("snapshot written tick=%d", snap.Header.Tick)
		}
	}()
	w.SetSnapshotSink(snapCh)

	ctx, stopSig := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSig()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("world loop: %v", err)
		}
	}()

	wsrv := ws.NewServer(w, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", wsrv.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(rw, `{"ok":true,"world":%q,"tick":%d}`+"\n", w.ID(), w.CurrentTick())
	})
	mux.HandleFunc("/debug/pprof/", pprof.Index)

	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	logger.Printf("listening on %s world=%s tick=%d tuning=%s", *addr, *worldID, w.CurrentTick(), tune.Digest()[:12])
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("http: %v", err)
	}

	<-worldDone
	close(snapCh)
	<-snapDone
	logger.Printf("shut down at tick=%d", w.CurrentTick())
}

// tickFan mirrors tick log entries into the sqlite index alongside the
// durable JSONL log. Index errors never fail the tick.
type tickFan struct {
	jsonl *persistlog.TickLogger
	idx   *indexdb.SQLiteIndex
}

func (f tickFan) WriteTick(e world.TickLogEntry) error {
	err := f.jsonl.WriteTick(e)
	if f.idx != nil {
		_ = f.idx.WriteTick(e)
	}
	return err
}

type auditFan struct {
	jsonl *persistlog.AuditLogger
	idx   *indexdb.SQLiteIndex
}

func (f auditFan) WriteAudit(e world.AuditEntry) error {
	err := f.jsonl.WriteAudit(e)
	if f.idx != nil {
		_ = f.idx.WriteAudit(e)
	}
	return err
}

// latestSnapshot returns the newest snapshot in dir, or "". Filenames embed
// a fixed-width tick so lexical order matches tick order.
func latestSnapshot(dir string) string {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	best := ""
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".snap.zst") && name > best {
			best = name
		}
	}
	if best == "" {
		return ""
	}
	return filepath.Join(dir, best)
}
