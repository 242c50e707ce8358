package sync

import (
	"context"
	"testing"

	"github.com/glidekit/glidesync/internal/snow"
)

// TestSyncAllCountsOnlyValidNames verifies invalid and irrelevant files
// are excluded before counting, not reported as failures.
func TestSyncAllCountsOnlyValidNames(t *testing.T) {
	store := newFakeStore()
	store.add("sys_script_include", snow.Record{"sys_id": "u1", "name": "Util", "script": "old"})
	engine, fs := newTestEngine(t, store)

	writeLocal(t, fs, "scripts/Util.sys_script_include.js", "var Util = 1;")
	writeLocal(t, fs, "scripts/notes.txt", "not a script")
	writeLocal(t, fs, "scripts/README", "also not")
	writeLocal(t, fs, "scripts/Wrong.sys_script.txt", "bad extension")

	rep := engine.SyncAll(context.Background(), BulkOptions{Dir: "scripts"})

	if rep.Err != "" {
		t.Fatalf("unexpected top-level error: %s", rep.Err)
	}
	if rep.Total != 1 {
		t.Errorf("Total = %d, want 1", rep.Total)
	}
	if rep.Synced != 1 || rep.Failed != 0 {
		t.Errorf("Synced/Failed = %d/%d, want 1/0", rep.Synced, rep.Failed)
	}
	if len(rep.Results) != 1 {
		t.Fatalf("Results has %d entries, want 1", len(rep.Results))
	}
	// One push is one query plus one update; the ignored files must
	// never reach the remote.
	if store.queries != 1 || store.updates != 1 {
		t.Errorf("remote traffic = %d queries / %d updates, want 1/1", store.queries, store.updates)
	}
}

// TestSyncAllToleratesPartialFailure verifies one file's failure never
// aborts the batch and the accounting invariant holds.
func TestSyncAllToleratesPartialFailure(t *testing.T) {
	store := newFakeStore()
	store.add("sys_script", snow.Record{"sys_id": "a1", "name": "Alpha", "script": "old"})
	// No record for Beta: its push fails.
	engine, fs := newTestEngine(t, store)

	writeLocal(t, fs, "scripts/Alpha.sys_script.js", "var a;")
	writeLocal(t, fs, "scripts/Beta.sys_script.js", "var b;")

	rep := engine.SyncAll(context.Background(), BulkOptions{Dir: "scripts"})

	if rep.Total != 2 {
		t.Errorf("Total = %d, want 2", rep.Total)
	}
	if rep.Synced != 1 || rep.Failed != 1 {
		t.Errorf("Synced/Failed = %d/%d, want 1/1", rep.Synced, rep.Failed)
	}
	if rep.Synced+rep.Failed != rep.Total {
		t.Errorf("accounting broken: %d + %d != %d", rep.Synced, rep.Failed, rep.Total)
	}
	if len(rep.Results) != 2 {
		t.Errorf("Results has %d entries, want 2", len(rep.Results))
	}
}

// TestSyncAllPushesOnly verifies bulk sync pushes local content and
// never pulls remote content over it.
func TestSyncAllPushesOnly(t *testing.T) {
	store := newFakeStore()
	store.add("sys_script", snow.Record{"sys_id": "p1", "name": "Rule", "script": "remote version"})
	engine, fs := newTestEngine(t, store)

	writeLocal(t, fs, "scripts/Rule.sys_script.js", "local version")

	rep := engine.SyncAll(context.Background(), BulkOptions{Dir: "scripts"})
	if rep.Synced != 1 {
		t.Fatalf("Synced = %d, want 1", rep.Synced)
	}
	if rep.Results[0].Direction != DirectionPush {
		t.Errorf("direction = %s, want push", rep.Results[0].Direction)
	}
	if got := store.lastUpdateFields["script"]; got != "local version" {
		t.Errorf("remote body = %q, want local content pushed", got)
	}
	if got := readLocal(t, fs, "scripts/Rule.sys_script.js"); got != "local version" {
		t.Errorf("local file changed during bulk push: %q", got)
	}
}

// TestSyncAllTypeFilter verifies filtered-out types are excluded from
// the count and generate no remote traffic.
func TestSyncAllTypeFilter(t *testing.T) {
	store := newFakeStore()
	store.add("sys_script", snow.Record{"sys_id": "f1", "name": "Rule", "script": "old"})
	store.add("sys_script_include", snow.Record{"sys_id": "f2", "name": "Util", "script": "old"})
	engine, fs := newTestEngine(t, store)

	writeLocal(t, fs, "scripts/Rule.sys_script.js", "var r;")
	writeLocal(t, fs, "scripts/Util.sys_script_include.js", "var u;")

	rep := engine.SyncAll(context.Background(), BulkOptions{
		Dir:   "scripts",
		Types: []string{"sys_script"},
	})

	if rep.Total != 1 {
		t.Errorf("Total = %d, want 1", rep.Total)
	}
	if store.lastUpdateTable != "sys_script" {
		t.Errorf("updated table = %s, want sys_script", store.lastUpdateTable)
	}
	if store.queries != 1 {
		t.Errorf("queries = %d, want 1 (filtered type must stay local)", store.queries)
	}
}

// TestSyncAllCreatesMissingDirectory verifies an absent directory is a
// valid, trivial input.
func TestSyncAllCreatesMissingDirectory(t *testing.T) {
	engine, fs := newTestEngine(t, newFakeStore())

	rep := engine.SyncAll(context.Background(), BulkOptions{Dir: "brand/new/dir"})

	if rep.Err != "" {
		t.Fatalf("unexpected error: %s", rep.Err)
	}
	if rep.Total != 0 || rep.Synced != 0 || rep.Failed != 0 {
		t.Errorf("report = %+v, want all-zero counts", rep)
	}
	if _, err := fs.Stat("brand/new/dir"); err != nil {
		t.Errorf("directory was not created: %v", err)
	}
}

// TestSyncAllDirectoryFailure verifies a directory-level failure lands
// in Report.Err instead of escaping as an error.
func TestSyncAllDirectoryFailure(t *testing.T) {
	engine, fs := newTestEngine(t, newFakeStore())
	// A file where the directory should be makes MkdirAll fail.
	writeLocal(t, fs, "blocker", "i am a file")

	rep := engine.SyncAll(context.Background(), BulkOptions{Dir: "blocker"})

	if rep.Err == "" {
		t.Fatal("Report.Err should carry the directory failure")
	}
	if len(rep.Results) != 0 {
		t.Errorf("Results has %d entries, want 0", len(rep.Results))
	}
}

// TestSyncAllSkipsSubdirectories verifies only direct file entries are
// candidates.
func TestSyncAllSkipsSubdirectories(t *testing.T) {
	store := newFakeStore()
	store.add("sys_script", snow.Record{"sys_id": "s1", "name": "Top", "script": "old"})
	engine, fs := newTestEngine(t, store)

	writeLocal(t, fs, "scripts/Top.sys_script.js", "var t;")
	// A directory whose name itself decodes validly must still be skipped.
	if err := fs.MkdirAll("scripts/Inner.sys_script.js", 0o755); err != nil {
		t.Fatalf("failed to create subdirectory: %v", err)
	}

	rep := engine.SyncAll(context.Background(), BulkOptions{Dir: "scripts"})
	if rep.Total != 1 {
		t.Errorf("Total = %d, want 1", rep.Total)
	}
}
