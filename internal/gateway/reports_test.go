// ABOUTME: Tests for the disk-backed report store
// ABOUTME: Save/list/get round trips and id validation

package gateway

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func newTestReportStore(t *testing.T) *ReportStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := NewReportStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("NewReportStore failed: %v", err)
	}
	return store
}

func TestReportStoreRoundTrip(t *testing.T) {
	store := newTestReportStore(t)

	id, err := store.Save("# Report\n\nbody")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	content, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(content) != "# Report\n\nbody" {
		t.Errorf("content = %q, want original markdown", content)
	}

	reports, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != id {
		t.Errorf("List = %+v, want single report %s", reports, id)
	}
}

func TestReportStoreRejectsNonUUIDIds(t *testing.T) {
	store := newTestReportStore(t)

	for _, id := range []string{"", "latest", "../secrets", "../../etc/passwd"} {
		if _, err := store.Get(id); !errors.Is(err, ErrReportNotFound) {
			t.Errorf("Get(%q) error = %v, want ErrReportNotFound", id, err)
		}
	}
}

func TestReportStoreListIgnoresStrayFiles(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := NewReportStore(dir, logger)
	if err != nil {
		t.Fatalf("NewReportStore failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "not-a-uuid.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	reports, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("List = %+v, want empty", reports)
	}
}
