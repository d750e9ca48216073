// ABOUTME: Disk-backed store for generated code-review reports
// ABOUTME: Reports are markdown files named by UUID under the reports directory

package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrReportNotFound is returned when no report exists for the given id.
var ErrReportNotFound = errors.New("report not found")

// Report describes a stored code-review report.
type Report struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

// ReportStore persists code-review reports as markdown files. File names
// are UUIDs assigned at save time; lookups validate the id so a crafted
// path can never escape the reports directory.
type ReportStore struct {
	dir    string
	logger *slog.Logger
}

// NewReportStore creates the reports directory if needed.
func NewReportStore(dir string, logger *slog.Logger) (*ReportStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating reports directory: %w", err)
	}
	return &ReportStore{
		dir:    dir,
		logger: logger.With("component", "reports"),
	}, nil
}

// Save writes a new report and returns its assigned id.
func (s *ReportStore) Save(content string) (string, error) {
	id := uuid.New().String()
	path := filepath.Join(s.dir, id+".md")

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	s.logger.Info("report saved", "report_id", id, "bytes", len(content))
	return id, nil
}

// List returns stored reports, newest first.
func (s *ReportStore) List() ([]Report, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading reports directory: %w", err)
	}

	reports := make([]Report, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		id := strings.TrimSuffix(name, ".md")
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		reports = append(reports, Report{
			ID:        id,
			CreatedAt: info.ModTime(),
			SizeBytes: info.Size(),
		})
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// Get returns the markdown content of the report with the given id.
// Ids that are not well-formed UUIDs are rejected before touching the
// filesystem.
func (s *ReportStore) Get(id string) ([]byte, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrReportNotFound
	}

	content, err := os.ReadFile(filepath.Join(s.dir, id+".md"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("reading report: %w", err)
	}
	return content, nil
}
