package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/depot"
	"github.com/etnz/depot/store"
	"github.com/shopspring/decimal"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, string(body)
}

func sampleReport() *depot.Report {
	d := decimal.RequireFromString
	return &depot.Report{
		ReferenceDate: depot.MustParse("2025-04-17"),
		Rows: []depot.ReportRow{{
			Instrument: "x", Name: "Example", Shares: d("50"), Live: d("105"),
			Daily: depot.Delta{Reference: d("100"), Price: d("5"), Percent: d("5"), Value: d("250")},
		}},
		Total: depot.Total{Daily: d("250")},
	}
}

func TestServer_Files(t *testing.T) {
	dir := t.TempDir()
	report, err := json.Marshal(sampleReport())
	if err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"report.json":       string(report),
		"history.json":      `{"dates":[],"instruments":[],"total":[]}`,
		"static/index.html": "<h1>depot</h1>",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		os.MkdirAll(filepath.Dir(path), 0o755)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	h := New(Options{
		Static:      filepath.Join(dir, "static"),
		ReportFile:  filepath.Join(dir, "report.json"),
		HistoryFile: filepath.Join(dir, "history.json"),
	}).Handler()

	tests := []struct {
		path   string
		status int
		want   string
	}{
		{"/health", http.StatusOK, `"ok"`},
		{"/api/report", http.StatusOK, `"reference_date":"17.04.2025"`},
		{"/api/history", http.StatusOK, `"dates":[]`},
		{"/index.html", http.StatusOK, "<h1>depot</h1>"},
		{"/report", http.StatusOK, ">Example</td>"},
		{"/report", http.StatusOK, ">SUMME</td>"},
		{"/api/report/some-id", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		status, body := get(t, h, tt.path)
		if status != tt.status || !strings.Contains(body, tt.want) {
			t.Errorf("GET %s = %d %q, want %d containing %q", tt.path, status, body, tt.status, tt.want)
		}
	}
}

func TestServer_NoReport(t *testing.T) {
	dir := t.TempDir()
	h := New(Options{ReportFile: filepath.Join(dir, "report.json"), HistoryFile: filepath.Join(dir, "history.json")}).Handler()
	for _, path := range []string{"/api/report", "/api/history", "/report"} {
		if status, _ := get(t, h, path); status != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, status)
		}
	}
}

func TestServer_Snapshots(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "depot.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	id, err := s.SaveSnapshot(context.Background(), sampleReport())
	if err != nil {
		t.Fatal(err)
	}
	h := New(Options{Store: s}).Handler()

	for _, path := range []string{"/api/report", "/api/report/" + id} {
		status, body := get(t, h, path)
		if status != http.StatusOK || !strings.Contains(body, `"id":"`+id+`"`) {
			t.Errorf("GET %s = %d %q, want the snapshot %s", path, status, body, id)
		}
	}
	if status, _ := get(t, h, "/api/report/unknown"); status != http.StatusNotFound {
		t.Errorf("GET unknown snapshot = %d, want 404", status)
	}
}
