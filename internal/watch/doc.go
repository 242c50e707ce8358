// Package watch observes a script directory and pushes edits to the
// remote instance as they settle.
//
// # Overview
//
// The coordinator layers three defenses against filesystem event noise
// between an editor's save and a clean push:
//
//   - Content stability: a changed file is dispatched only after its
//     size and mtime have stopped changing for the stability window
//     (default 500ms), sampled at the poll interval (default 100ms).
//     Half-written files never reach the engine.
//   - In-flight set: at most one sync per path at a time. Events for a
//     path whose sync is still running are dropped, not queued.
//   - Cooldown: a path stays in the in-flight set for a grace period
//     (default 1s) after its sync finishes, absorbing the trailing
//     duplicate events editors emit for a single logical save.
//
// Watch-triggered syncs are always pushes. The watcher never pulls, so
// a background process cannot silently overwrite local work.
//
// # Event flow
//
//	fsnotify ──► pending table ──► stability poll ──► decode + filter
//	                                                      │
//	                     Results() ◄── engine push ◄── in-flight claim
//
// Outcomes are delivered on Results(); watcher infrastructure failures
// on Errors(). Both channels close after Stop.
//
// # Usage
//
//	cfg := watch.DefaultConfig()
//	cfg.Dir = "/work/scripts"
//	c, err := watch.New(engine, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := c.Start(); err != nil {
//	    return err
//	}
//	defer c.Stop()
//
//	for res := range c.Results() {
//	    fmt.Println(res.Message)
//	}
//
// # Concurrency
//
// One goroutine owns the fsnotify events and the pending table; syncs
// for distinct paths run concurrently in their own goroutines with no
// ordering guarantee between them. The per-path guarantee is absolute:
// the in-flight set never admits two syncs for the same path.
package watch
