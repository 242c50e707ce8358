package snow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient points a client at the given test server with test
// credentials.
func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{
		URL:      srv.URL,
		Username: "admin",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

// TestQueryBuildsTableAPIRequest verifies the request path, the encoded
// sysparm parameters, basic auth, and response decoding.
func TestQueryBuildsTableAPIRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/now/table/sys_script_include" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("sysparm_query"); got != "name=PaymentUtil" {
			t.Errorf("sysparm_query = %q", got)
		}
		if got := q.Get("sysparm_limit"); got != "1" {
			t.Errorf("sysparm_limit = %q", got)
		}
		if got := q.Get("sysparm_fields"); got != "sys_id,name,script" {
			t.Errorf("sysparm_fields = %q", got)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":[{"sys_id":"abc123","name":"PaymentUtil","script":"var x;"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	records, err := c.Query(context.Background(), "sys_script_include", Query{
		Match:  map[string]string{"name": "PaymentUtil"},
		Limit:  1,
		Fields: []string{"sys_id", "name", "script"},
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].SysID() != "abc123" {
		t.Errorf("SysID = %s, want abc123", records[0].SysID())
	}
	if records[0].Field("script") != "var x;" {
		t.Errorf("script = %q", records[0].Field("script"))
	}
}

// TestQueryTermOrdering verifies multiple match terms encode in sorted
// order joined with ^.
func TestQueryTermOrdering(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("sysparm_query"); got != "active=true^name=X" {
			t.Errorf("sysparm_query = %q, want active=true^name=X", got)
		}
		w.Write([]byte(`{"result":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if _, err := c.Query(context.Background(), "sys_script", Query{
		Match: map[string]string{"name": "X", "active": "true"},
	}); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
}

// TestQueryZeroMatches verifies an empty result list is not an error.
func TestQueryZeroMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	records, err := c.Query(context.Background(), "sys_script", Query{
		Match: map[string]string{"name": "Nothing"},
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

// TestUpdatePatchesRecord verifies the PATCH request shape and response
// decoding.
func TestUpdatePatchesRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		if r.URL.Path != "/api/now/table/sys_script/abc123" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var fields map[string]string
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		if fields["script"] != "var y;" {
			t.Errorf("script field = %q", fields["script"])
		}
		w.Write([]byte(`{"result":{"sys_id":"abc123","script":"var y;"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	rec, err := c.Update(context.Background(), "sys_script", "abc123", map[string]string{"script": "var y;"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if rec.SysID() != "abc123" {
		t.Errorf("SysID = %s, want abc123", rec.SysID())
	}
}

// TestUpdateNotFound verifies a 404 surfaces as NotFoundError carrying
// the table and sys_id.
func TestUpdateNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"No Record found"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Update(context.Background(), "sys_script", "gone", map[string]string{"script": "x"})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if nf.Table != "sys_script" || nf.ID != "gone" {
		t.Errorf("NotFoundError = %+v", nf)
	}
}

// TestUnauthorized verifies 401 maps to ErrUnauthorized.
func TestUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Query(context.Background(), "sys_script", Query{Limit: 1})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

// TestStatusErrorCarriesInstanceMessage verifies the Table API error
// envelope is surfaced in StatusError.Detail.
func TestStatusErrorCarriesInstanceMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"Transaction cancelled: maximum execution time exceeded"},"status":"failure"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Query(context.Background(), "sys_script", Query{Limit: 1})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if se.Code != http.StatusInternalServerError {
		t.Errorf("Code = %d", se.Code)
	}
	if se.Detail != "Transaction cancelled: maximum execution time exceeded" {
		t.Errorf("Detail = %q", se.Detail)
	}
}

// TestNewValidation covers config rejection.
func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing url", Config{Username: "admin"}},
		{"bad scheme", Config{URL: "ftp://x", Username: "admin"}},
		{"missing username", Config{URL: "https://x.example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("New should fail")
			}
		})
	}
}

// TestTestConnection verifies the connectivity probe succeeds against a
// healthy instance and fails against an unreachable one.
func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[{"sys_id":"1"}]}`))
	}))
	c := newTestClient(t, srv)
	if err := c.TestConnection(context.Background()); err != nil {
		t.Errorf("TestConnection failed: %v", err)
	}

	srv.Close()
	if err := c.TestConnection(context.Background()); err == nil {
		t.Error("TestConnection against closed server should fail")
	}
}
