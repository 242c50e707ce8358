package journal

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/glidekit/glidesync/internal/sync"
)

// testJournalPath returns a temporary path for test databases
func testJournalPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "history.db")
}

// openTestJournal opens a journal with its schema applied
func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(testJournalPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })

	if err := j.InitSchema(); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}
	return j
}

// result builds a sync outcome for seeding tests
func result(name, typ string, success bool, at time.Time) sync.Result {
	res := sync.Result{
		Name:      name,
		Type:      typ,
		FilePath:  name + "." + typ + ".js",
		Direction: sync.DirectionPush,
		Success:   success,
		Message:   "test outcome",
		Timestamp: at,
	}
	if success {
		res.RemoteID = "abc123"
	} else {
		res.Err = "record not found"
	}
	return res
}

// TestOpen_Success tests database creation, including the parent dir
func TestOpen_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer j.Close()

	if j.path != path {
		t.Errorf("path = %q, want %q", j.path, path)
	}
}

// TestInitSchema_Idempotent tests that schema initialization is idempotent
func TestInitSchema_Idempotent(t *testing.T) {
	j := openTestJournal(t)

	if err := j.InitSchema(); err != nil {
		t.Errorf("Second InitSchema() failed: %v", err)
	}

	var count int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='sync_history'`
	if err := j.conn.QueryRow(query).Scan(&count); err != nil {
		t.Fatalf("Failed to query sqlite_master: %v", err)
	}
	if count != 1 {
		t.Errorf("sync_history table count = %d, want 1", count)
	}
}

// TestRecord tests appending one outcome
func TestRecord(t *testing.T) {
	j := openTestJournal(t)

	now := time.Now().UTC().Truncate(time.Second)
	if err := j.Record(result("PaymentUtil", "sys_script_include", true, now), "dev"); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	var name, instance, createdAt string
	var success int
	query := `SELECT name, instance, success, created_at FROM sync_history WHERE name = ?`
	if err := j.conn.QueryRow(query, "PaymentUtil").Scan(&name, &instance, &success, &createdAt); err != nil {
		t.Fatalf("Failed to query entry: %v", err)
	}

	if instance != "dev" {
		t.Errorf("instance = %q, want 'dev'", instance)
	}
	if success != 1 {
		t.Errorf("success = %d, want 1", success)
	}
	if createdAt != now.Format(time.RFC3339) {
		t.Errorf("created_at = %q, want %q", createdAt, now.Format(time.RFC3339))
	}
}

// TestRecord_ZeroTimestamp tests that a missing timestamp is filled in
func TestRecord_ZeroTimestamp(t *testing.T) {
	j := openTestJournal(t)

	res := result("Late", "sys_script", true, time.Time{})
	if err := j.Record(res, ""); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	entries, err := j.List(Filter{})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("CreatedAt is zero; Record should stamp the current time")
	}
}

// TestList tests filtering and ordering
func TestList(t *testing.T) {
	j := openTestJournal(t)

	base := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
	seed := []struct {
		name    string
		typ     string
		success bool
		at      time.Time
	}{
		{"Oldest", "sys_script", true, base},
		{"Failed", "sys_script", false, base.Add(10 * time.Minute)},
		{"Include", "sys_script_include", true, base.Add(20 * time.Minute)},
		{"Newest", "sys_script", true, base.Add(30 * time.Minute)},
	}
	for _, s := range seed {
		if err := j.Record(result(s.name, s.typ, s.success, s.at), "dev"); err != nil {
			t.Fatalf("Record(%s) failed: %v", s.name, err)
		}
	}

	t.Run("NewestFirst", func(t *testing.T) {
		entries, err := j.List(Filter{})
		if err != nil {
			t.Fatalf("List() failed: %v", err)
		}
		if len(entries) != 4 {
			t.Fatalf("expected 4 entries, got %d", len(entries))
		}
		if entries[0].Name != "Newest" || entries[3].Name != "Oldest" {
			t.Errorf("order = [%s ... %s], want [Newest ... Oldest]", entries[0].Name, entries[3].Name)
		}
	})

	t.Run("FilterByType", func(t *testing.T) {
		entries, err := j.List(Filter{Type: "sys_script_include"})
		if err != nil {
			t.Fatalf("List() failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Name != "Include" {
			t.Errorf("expected only the Include entry, got %d entries", len(entries))
		}
	})

	t.Run("FailedOnly", func(t *testing.T) {
		entries, err := j.List(Filter{FailedOnly: true})
		if err != nil {
			t.Fatalf("List() failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Name != "Failed" {
			t.Errorf("expected only the Failed entry, got %d entries", len(entries))
		}
		if entries[0].Err != "record not found" {
			t.Errorf("Err = %q, want 'record not found'", entries[0].Err)
		}
	})

	t.Run("Since", func(t *testing.T) {
		entries, err := j.List(Filter{Since: base.Add(15 * time.Minute)})
		if err != nil {
			t.Fatalf("List() failed: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("expected 2 entries since cutoff, got %d", len(entries))
		}
	})

	t.Run("Limit", func(t *testing.T) {
		entries, err := j.List(Filter{Limit: 2})
		if err != nil {
			t.Fatalf("List() failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries with limit, got %d", len(entries))
		}
		if entries[0].Name != "Newest" {
			t.Errorf("first limited entry = %s, want Newest", entries[0].Name)
		}
	})
}

// TestStats tests journal summarization
func TestStats(t *testing.T) {
	j := openTestJournal(t)

	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("Rule%d", i)
		if err := j.Record(result(name, "sys_script", true, now.Add(time.Duration(i)*time.Minute)), "dev"); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
	}
	if err := j.Record(result("Broken", "sys_ui_script", false, now.Add(5*time.Minute)), "dev"); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	stats, err := j.Stats()
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}

	if stats.Total != 4 {
		t.Errorf("Total = %d, want 4", stats.Total)
	}
	if stats.Succeeded != 3 {
		t.Errorf("Succeeded = %d, want 3", stats.Succeeded)
	}
	if stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", stats.Failed)
	}
	if stats.ByType["sys_script"] != 3 || stats.ByType["sys_ui_script"] != 1 {
		t.Errorf("ByType = %v", stats.ByType)
	}
	if stats.LastSync == nil || !stats.LastSync.Equal(now.Add(5*time.Minute)) {
		t.Errorf("LastSync = %v, want %v", stats.LastSync, now.Add(5*time.Minute))
	}
}

// TestStats_Empty tests summarizing an empty journal
func TestStats_Empty(t *testing.T) {
	j := openTestJournal(t)

	stats, err := j.Stats()
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.Total != 0 || stats.Failed != 0 {
		t.Errorf("empty journal stats = %+v", stats)
	}
	if stats.LastSync != nil {
		t.Errorf("LastSync = %v, want nil", stats.LastSync)
	}
}

// TestClose tests connection cleanup
func TestClose(t *testing.T) {
	j, err := Open(testJournalPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if err := j.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	// Calling Close() again should be safe
	if err := j.Close(); err != nil {
		t.Errorf("Second Close() failed: %v", err)
	}
}

func BenchmarkRecord(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench.db")
	j, err := Open(path)
	if err != nil {
		b.Fatalf("Open() failed: %v", err)
	}
	defer j.Close()

	if err := j.InitSchema(); err != nil {
		b.Fatalf("InitSchema() failed: %v", err)
	}

	res := result("BenchRule", "sys_script", true, time.Now().UTC())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := j.Record(res, "dev"); err != nil {
			b.Fatalf("Record() failed: %v", err)
		}
	}
}

func BenchmarkList(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench.db")
	j, err := Open(path)
	if err != nil {
		b.Fatalf("Open() failed: %v", err)
	}
	defer j.Close()

	if err := j.InitSchema(); err != nil {
		b.Fatalf("InitSchema() failed: %v", err)
	}

	now := time.Now().UTC()
	for i := 0; i < 500; i++ {
		res := result(fmt.Sprintf("BenchRule%d", i), "sys_script", i%7 != 0, now.Add(time.Duration(i)*time.Second))
		if err := j.Record(res, "dev"); err != nil {
			b.Fatalf("Record() failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := j.List(Filter{Type: "sys_script", Limit: 20}); err != nil {
			b.Fatalf("List() failed: %v", err)
		}
	}
}
