package sync

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/glidekit/glidesync/internal/naming"
)

// BulkOptions configure a directory-wide sync.
type BulkOptions struct {
	Dir      string
	Types    []string // optional type filter; empty means every registered type
	Instance string
}

// Report aggregates the outcome of one bulk sync. Total counts only
// files whose names decode validly under the active type filter;
// Synced + Failed == Total for every completed report.
type Report struct {
	Dir     string   `json:"dir" yaml:"dir"`
	Types   []string `json:"types,omitempty" yaml:"types,omitempty"`
	Total   int      `json:"total" yaml:"total"`
	Synced  int      `json:"synced" yaml:"synced"`
	Failed  int      `json:"failed" yaml:"failed"`
	Results []Result `json:"results" yaml:"results"`
	Err     string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// SyncAll pushes every validly-named file in opts.Dir to the remote
// store, one file at a time in listing order. Bulk sync is push-only;
// it never pulls over local files.
//
// There is no error return. Failure to create or list the directory is
// recorded in Report.Err, and per-file failures are ordinary failed
// Results; no single file aborts the batch.
func (e *Engine) SyncAll(ctx context.Context, opts BulkOptions) Report {
	rep := Report{Dir: opts.Dir, Types: opts.Types}

	// An absent directory is created, making the empty directory a
	// valid, trivial input rather than an error.
	if err := e.fs.MkdirAll(opts.Dir, 0o755); err != nil {
		rep.Err = fmt.Sprintf("failed to create directory %s: %v", opts.Dir, err)
		return rep
	}
	entries, err := e.fs.ReadDir(opts.Dir)
	if err != nil {
		rep.Err = fmt.Sprintf("failed to list directory %s: %v", opts.Dir, err)
		return rep
	}

	filter := newTypeFilter(opts.Types)

	type entry struct {
		fileName string
		token    naming.Token
	}
	var kept []entry
	for _, fi := range entries {
		if fi.IsDir() {
			continue
		}
		tok := naming.Decode(e.reg, fi.Name())
		if !tok.Valid || !filter.allows(tok.Type) {
			// Not a sync candidate. Excluded before counting, never
			// reported as a failure.
			continue
		}
		kept = append(kept, entry{fileName: fi.Name(), token: tok})
	}
	rep.Total = len(kept)

	for _, it := range kept {
		res, err := e.Sync(ctx, Request{
			Name:      it.token.Name,
			Type:      it.token.Type,
			FilePath:  filepath.Join(opts.Dir, it.fileName),
			Direction: DirectionPush,
			Instance:  opts.Instance,
		})
		if err != nil {
			// Registry-filtered entries cannot normally fail validation;
			// if one does, keep the batch accounting intact.
			res = failure(Request{
				Name:     it.token.Name,
				Type:     it.token.Type,
				FilePath: filepath.Join(opts.Dir, it.fileName),
			}, DirectionPush, "sync aborted before starting", err)
		}
		rep.Results = append(rep.Results, res)
		if res.Success {
			rep.Synced++
		} else {
			rep.Failed++
			e.logger.Warn("bulk sync entry failed",
				slog.String("file", it.fileName),
				slog.String("error", res.Err))
		}
	}

	e.logger.Info("bulk sync complete",
		slog.String("dir", opts.Dir),
		slog.Int("total", rep.Total),
		slog.Int("synced", rep.Synced),
		slog.Int("failed", rep.Failed))
	return rep
}

// typeFilter is a set of allowed tables; nil allows everything.
type typeFilter map[string]struct{}

func newTypeFilter(types []string) typeFilter {
	if len(types) == 0 {
		return nil
	}
	f := make(typeFilter, len(types))
	for _, t := range types {
		f[t] = struct{}{}
	}
	return f
}

func (f typeFilter) allows(table string) bool {
	if f == nil {
		return true
	}
	_, ok := f[table]
	return ok
}
