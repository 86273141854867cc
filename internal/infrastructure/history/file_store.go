package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

// FileStore appends plan records to a JSONL file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save implements ports.HistoryRepository.
func (f *FileStore) Save(_ context.Context, rec domain.PlanRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = file.Write(append(data, '\n'))
	return err
}

// List returns the newest records first.
func (f *FileStore) List(ctx context.Context, limit int) ([]domain.PlanRecord, error) {
	return f.Search(ctx, "", limit)
}

// Search filters records whose question, KPI, planner or SQL contain term.
func (f *FileStore) Search(_ context.Context, term string, limit int) ([]domain.PlanRecord, error) {
	records, err := f.readAll()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	var out []domain.PlanRecord
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if needle != "" && !matches(rec, needle) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Stats aggregates records by provenance, fallback reason and KPI.
func (f *FileStore) Stats(context.Context) (domain.HistoryStats, error) {
	records, err := f.readAll()
	if err != nil {
		return domain.HistoryStats{}, err
	}
	return computeStats(records), nil
}

// Clear removes the history file.
func (f *FileStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) readAll() ([]domain.PlanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var records []domain.PlanRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec domain.PlanRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records, scanner.Err()
}

func matches(rec domain.PlanRecord, needle string) bool {
	for _, field := range []string{rec.Question, rec.KPI, string(rec.Planner), rec.SQL} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

var _ ports.HistoryRepository = (*FileStore)(nil)
