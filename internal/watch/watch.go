package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	stdsync "sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/glidekit/glidesync/internal/naming"
	"github.com/glidekit/glidesync/internal/sync"
)

// Config controls one coordinator instance. Start from DefaultConfig;
// the zero value disables auto-sync, which is rarely what you want.
type Config struct {
	// Dir is the directory to watch, recursively. Hidden entries (any
	// path segment starting with a dot) are ignored at every depth.
	Dir string

	// Types restricts syncing to the listed script type tables. Empty
	// means every registered type.
	Types []string

	// AutoSync pushes settled files to the instance. When false the
	// coordinator only reports detected changes.
	AutoSync bool

	// Instance is the configured instance qualifier stamped on sync
	// requests, informational only.
	Instance string

	// StabilityWindow is how long a file's size and mtime must hold
	// still before it is dispatched.
	StabilityWindow time.Duration

	// PollInterval is how often pending files are re-examined.
	PollInterval time.Duration

	// Cooldown is how long a path stays in the in-flight set after its
	// sync completes, coalescing trailing duplicate events.
	Cooldown time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns the standard tuning: 500ms stability window,
// 100ms poll interval, 1s cooldown, auto-sync on.
func DefaultConfig() Config {
	return Config{
		AutoSync:        true,
		StabilityWindow: 500 * time.Millisecond,
		PollInterval:    100 * time.Millisecond,
		Cooldown:        time.Second,
	}
}

// pendingFile tracks the last observed shape of a changed file and when
// it last changed.
type pendingFile struct {
	size    int64
	modTime time.Time
	since   time.Time
}

// Coordinator drives the sync engine from filesystem events. Create
// with New, begin with Start, and always Stop: lifecycle is
// caller-owned and nothing tears down automatically.
type Coordinator struct {
	engine *sync.Engine
	cfg    Config
	logger *slog.Logger

	fsw     *fsnotify.Watcher
	results chan sync.Result
	errs    chan error
	done    chan struct{}
	wg      stdsync.WaitGroup

	// pending is touched only by the run goroutine.
	pending map[string]*pendingFile

	// inflight is shared with sync goroutines and cooldown timers.
	mu       stdsync.Mutex
	inflight map[string]struct{}
	running  bool

	types map[string]struct{} // nil means all
}

// New validates the config and prepares a coordinator. The watcher does
// not observe anything until Start.
func New(engine *sync.Engine, cfg Config) (*Coordinator, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	if cfg.StabilityWindow <= 0 {
		cfg.StabilityWindow = 500 * time.Millisecond
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	var types map[string]struct{}
	if len(cfg.Types) > 0 {
		types = make(map[string]struct{}, len(cfg.Types))
		for _, t := range cfg.Types {
			types[t] = struct{}{}
		}
	}

	return &Coordinator{
		engine:   engine,
		cfg:      cfg,
		logger:   cfg.Logger.With(slog.String("component", "watch")),
		fsw:      fsw,
		results:  make(chan sync.Result, 100),
		errs:     make(chan error, 10),
		done:     make(chan struct{}),
		pending:  make(map[string]*pendingFile),
		inflight: make(map[string]struct{}),
		types:    types,
	}, nil
}

// Start registers the directory tree and launches the processing loop.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("watcher already running")
	}

	err := filepath.WalkDir(c.cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.cfg.Dir && c.hidden(path) {
			return filepath.SkipDir
		}
		return c.fsw.Add(path)
	})
	if err != nil {
		c.fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", c.cfg.Dir, err)
	}

	c.running = true
	c.wg.Add(1)
	go c.run()

	c.logger.Info("watching",
		slog.String("dir", c.cfg.Dir),
		slog.Bool("auto_sync", c.cfg.AutoSync),
		slog.Duration("stability_window", c.cfg.StabilityWindow))
	return nil
}

// Stop halts watching, waits for in-flight syncs to report, and closes
// Results and Errors. It is safe to call more than once.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	c.mu.Unlock()

	close(c.done)
	err := c.fsw.Close()
	c.wg.Wait()

	// Channels close even when the fsnotify teardown complains, so
	// consumers draining Results never hang.
	close(c.results)
	close(c.errs)

	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// Results delivers one outcome per dispatched change. The channel is
// closed by Stop.
func (c *Coordinator) Results() <-chan sync.Result {
	return c.results
}

// Errors delivers watcher infrastructure failures, never per-file sync
// failures. The channel is closed by Stop.
func (c *Coordinator) Errors() <-chan error {
	return c.errs
}

// IsRunning reports whether the coordinator is between Start and Stop.
func (c *Coordinator) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// run owns the fsnotify stream and the pending table. It is the only
// goroutine that mutates pending, so the table needs no lock.
func (c *Coordinator) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case ev, ok := <-c.fsw.Events:
			if !ok {
				return
			}
			c.handleEvent(ev)

		case err, ok := <-c.fsw.Errors:
			if !ok {
				return
			}
			select {
			case c.errs <- err:
			case <-c.done:
				return
			}

		case now := <-ticker.C:
			c.sweep(now)
		}
	}
}

// handleEvent folds one fsnotify event into the pending table. New
// directories join the watch; everything hidden is ignored.
func (c *Coordinator) handleEvent(ev fsnotify.Event) {
	if c.hidden(ev.Name) {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		// Deletes, renames and chmods are not sync triggers.
		return
	}

	fi, err := os.Stat(ev.Name)
	if err != nil {
		// Vanished between event and stat; drop any pending entry.
		delete(c.pending, ev.Name)
		return
	}

	if fi.IsDir() {
		if ev.Has(fsnotify.Create) {
			if err := c.fsw.Add(ev.Name); err != nil {
				select {
				case c.errs <- fmt.Errorf("failed to watch new directory %s: %w", ev.Name, err):
				case <-c.done:
				}
			}
		}
		return
	}

	c.pending[ev.Name] = &pendingFile{
		size:    fi.Size(),
		modTime: fi.ModTime(),
		since:   time.Now(),
	}
}

// sweep dispatches every pending file whose size and mtime have held
// still for the stability window.
func (c *Coordinator) sweep(now time.Time) {
	for path, p := range c.pending {
		fi, err := os.Stat(path)
		if err != nil {
			delete(c.pending, path)
			continue
		}
		if fi.Size() != p.size || !fi.ModTime().Equal(p.modTime) {
			p.size = fi.Size()
			p.modTime = fi.ModTime()
			p.since = now
			continue
		}
		if now.Sub(p.since) >= c.cfg.StabilityWindow {
			delete(c.pending, path)
			c.dispatch(path)
		}
	}
}

// dispatch runs the filter chain for one settled path and, when it
// passes, starts its sync goroutine.
func (c *Coordinator) dispatch(path string) {
	token := c.engine.Decode(filepath.Base(path))
	if !token.Valid {
		// Not a sync candidate; dropped without a report.
		return
	}
	if c.types != nil {
		if _, ok := c.types[token.Type]; !ok {
			return
		}
	}
	if !c.claim(path) {
		c.logger.Debug("dropping event for in-flight path", slog.String("path", path))
		return
	}

	c.wg.Add(1)
	go c.runSync(path, token)
}

// runSync performs one push (or a detection-only report when auto-sync
// is off), emits the result, and schedules the cooldown release.
func (c *Coordinator) runSync(path string, token naming.Token) {
	defer c.wg.Done()

	var res sync.Result
	if c.cfg.AutoSync {
		// A started sync always runs to completion; shutdown does not
		// cancel it, it only suppresses the report.
		r, err := c.engine.Sync(context.Background(), sync.Request{
			Name:      token.Name,
			Type:      token.Type,
			FilePath:  path,
			Direction: sync.DirectionPush,
			Instance:  c.cfg.Instance,
		})
		if err != nil {
			r = sync.Result{
				Name:      token.Name,
				Type:      token.Type,
				FilePath:  path,
				Direction: sync.DirectionPush,
				Message:   "sync aborted before starting",
				Err:       err.Error(),
				Timestamp: time.Now().UTC(),
			}
		}
		res = r
	} else {
		res = sync.Result{
			Name:      token.Name,
			Type:      token.Type,
			FilePath:  path,
			Success:   true,
			Message:   "change detected (auto-sync disabled)",
			Timestamp: time.Now().UTC(),
		}
	}

	select {
	case c.results <- res:
	case <-c.done:
	}

	// The path stays claimed through the cooldown so the trailing
	// events editors emit for one save cannot re-trigger.
	time.AfterFunc(c.cfg.Cooldown, func() { c.release(path) })
}

func (c *Coordinator) claim(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[path]; busy {
		return false
	}
	c.inflight[path] = struct{}{}
	return true
}

func (c *Coordinator) release(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, path)
}

// hidden reports whether any segment of path below the watch root
// starts with a dot.
func (c *Coordinator) hidden(path string) bool {
	rel, err := filepath.Rel(c.cfg.Dir, path)
	if err != nil {
		rel = path
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}
