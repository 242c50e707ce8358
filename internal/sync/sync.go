package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/glidekit/glidesync/internal/naming"
	"github.com/glidekit/glidesync/internal/scripttype"
	"github.com/glidekit/glidesync/internal/snow"
)

// Direction is the copy direction of one sync operation. The empty
// value asks the engine to infer: push when the local file exists, pull
// when it does not.
type Direction string

const (
	DirectionPush Direction = "push"
	DirectionPull Direction = "pull"
)

// RecordStore is the remote surface the engine consumes: read records by
// field value, update fields on an existing record. *snow.Client
// implements it. The engine never creates or deletes remote records.
type RecordStore interface {
	Query(ctx context.Context, table string, q snow.Query) ([]snow.Record, error)
	Update(ctx context.Context, table, id string, fields map[string]string) (snow.Record, error)
}

// Request describes one artifact to synchronize. Requests are ephemeral;
// build one per call.
type Request struct {
	Name      string
	Type      string
	FilePath  string
	Direction Direction
	Instance  string // which configured instance the caller resolved, informational
}

// Result is the outcome of one sync operation. It is constructed once
// inside the engine and never mutated afterwards.
type Result struct {
	Name      string    `json:"name" yaml:"name"`
	Type      string    `json:"type" yaml:"type"`
	FilePath  string    `json:"file_path" yaml:"file_path"`
	Direction Direction `json:"direction" yaml:"direction"`
	Success   bool      `json:"success" yaml:"success"`
	RemoteID  string    `json:"remote_id,omitempty" yaml:"remote_id,omitempty"`
	Message   string    `json:"message" yaml:"message"`
	Err       string    `json:"error,omitempty" yaml:"error,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Engine performs push and pull operations between local files and
// remote script records. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	store  RecordStore
	fs     billy.Filesystem
	reg    *scripttype.Registry
	logger *slog.Logger
}

// New creates an engine over the given remote store and filesystem.
// A nil logger disables logging.
func New(store RecordStore, fsys billy.Filesystem, reg *scripttype.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{store: store, fs: fsys, reg: reg, logger: logger}
}

// Sync runs one push or pull per the request.
//
// The returned error is non-nil only when the request itself is
// malformed: an unregistered script type or a direction outside
// {push, pull, ""}. That check happens before any I/O. Every failure
// after it, whether a missing remote record, an unreadable file, or a
// transport error, comes back as a Result with Success=false, so bulk
// and watch callers have a single handling path.
func (e *Engine) Sync(ctx context.Context, req Request) (Result, error) {
	desc, ok := e.reg.Lookup(req.Type)
	if !ok {
		return Result{}, fmt.Errorf("unknown script type %s", req.Type)
	}
	switch req.Direction {
	case DirectionPush, DirectionPull, "":
	default:
		return Result{}, fmt.Errorf("invalid direction %q", req.Direction)
	}

	dir := req.Direction
	if dir == "" {
		// Existence probe only; no timestamp comparison. A stat failure
		// of any kind counts as "file absent".
		if _, err := e.fs.Stat(req.FilePath); err == nil {
			dir = DirectionPush
		} else {
			dir = DirectionPull
		}
	}

	e.logger.Debug("syncing",
		slog.String("name", req.Name),
		slog.String("type", req.Type),
		slog.String("direction", string(dir)))

	var res Result
	if dir == DirectionPull {
		res = e.pull(ctx, desc, req)
	} else {
		res = e.push(ctx, desc, req)
	}
	if !res.Success {
		e.logger.Warn("sync failed",
			slog.String("name", req.Name),
			slog.String("type", req.Type),
			slog.String("error", res.Err))
	}
	return res, nil
}

// pull copies the remote record to the local file, prefixing the
// metadata header.
func (e *Engine) pull(ctx context.Context, desc scripttype.Descriptor, req Request) Result {
	records, err := e.store.Query(ctx, desc.Table, snow.Query{
		Match:  map[string]string{desc.NameField: req.Name},
		Limit:  1,
		Fields: []string{"sys_id", desc.NameField, desc.BodyField, "sys_updated_on"},
	})
	if err != nil {
		return failure(req, DirectionPull, fmt.Sprintf("failed to query %s", desc.Table), err)
	}
	if len(records) == 0 {
		return failure(req, DirectionPull,
			fmt.Sprintf("%s %q not found in %s; nothing written", desc.Label, req.Name, desc.Table),
			fmt.Errorf("%s %q not found", desc.Label, req.Name))
	}

	// First match wins. The name-to-record mapping is assumed 1:1; the
	// query is capped at one row and ambiguity is not detected here.
	rec := records[0]
	content := composeHeader(desc, req.Name, rec.SysID(), time.Now().UTC()) + rec.Field(desc.BodyField)

	if dir := filepath.Dir(req.FilePath); dir != "." && dir != "/" {
		if err := e.fs.MkdirAll(dir, 0o755); err != nil {
			return failure(req, DirectionPull, fmt.Sprintf("failed to create directory %s", dir), err)
		}
	}
	if err := util.WriteFile(e.fs, req.FilePath, []byte(content), 0o644); err != nil {
		return failure(req, DirectionPull, fmt.Sprintf("failed to write %s", req.FilePath), err)
	}

	return success(req, DirectionPull, rec.SysID(),
		fmt.Sprintf("pulled %s %q to %s", desc.Label, req.Name, req.FilePath))
}

// push copies the local file's body (header stripped) into the remote
// record. The record must already exist: push never creates.
func (e *Engine) push(ctx context.Context, desc scripttype.Descriptor, req Request) Result {
	data, err := util.ReadFile(e.fs, req.FilePath)
	if err != nil {
		return failure(req, DirectionPush, fmt.Sprintf("failed to read %s", req.FilePath), err)
	}
	body := stripHeader(string(data))

	records, err := e.store.Query(ctx, desc.Table, snow.Query{
		Match:  map[string]string{desc.NameField: req.Name},
		Limit:  1,
		Fields: []string{"sys_id", desc.NameField},
	})
	if err != nil {
		return failure(req, DirectionPush, fmt.Sprintf("failed to query %s", desc.Table), err)
	}
	if len(records) == 0 {
		return failure(req, DirectionPush,
			fmt.Sprintf("no %s named %q exists on the instance; create the record there first, then push", desc.Label, req.Name),
			fmt.Errorf("%s %q not found", desc.Label, req.Name))
	}

	rec := records[0]
	if _, err := e.store.Update(ctx, desc.Table, rec.SysID(), map[string]string{desc.BodyField: body}); err != nil {
		return failure(req, DirectionPush, fmt.Sprintf("failed to update %s record %s", desc.Table, rec.SysID()), err)
	}

	return success(req, DirectionPush, rec.SysID(),
		fmt.Sprintf("pushed %s to %s %q", req.FilePath, desc.Label, req.Name))
}

// Encode returns the canonical file name for an artifact, delegating to
// the naming convention with this engine's registry.
func (e *Engine) Encode(name, table string) (string, error) {
	return naming.Encode(e.reg, name, table)
}

// Decode parses a file name with this engine's registry.
func (e *Engine) Decode(fileName string) naming.Token {
	return naming.Decode(e.reg, fileName)
}

func success(req Request, dir Direction, remoteID, msg string) Result {
	return Result{
		Name:      req.Name,
		Type:      req.Type,
		FilePath:  req.FilePath,
		Direction: dir,
		Success:   true,
		RemoteID:  remoteID,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	}
}

func failure(req Request, dir Direction, msg string, cause error) Result {
	r := Result{
		Name:      req.Name,
		Type:      req.Type,
		FilePath:  req.FilePath,
		Direction: dir,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	}
	if cause != nil {
		r.Err = cause.Error()
	}
	return r
}
