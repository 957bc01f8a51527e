package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	metadataFile  = "metadata.json"
	variablesFile = "variables.csv"
)

var (
	ErrRunNotFound = errors.New("storage: run not found")
	ErrRaggedTable = errors.New("storage: columns differ in length")
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID          string             `json:"id"`
	Model       string             `json:"model"`
	Timestamp   time.Time          `json:"timestamp"`
	TSpan       [2]float64         `json:"t_span"`
	Solver      string             `json:"solver"`
	Tolerance   float64            `json:"tolerance"`
	Points      int                `json:"points"`
	Steps       int                `json:"steps"`
	Rejected    int                `json:"rejected"`
	Termination string             `json:"termination"`
	Parameters  map[string]float64 `json:"parameters"`
	Metrics     map[string]float64 `json:"metrics"`
	Variables   []string           `json:"variables"`
}

// Table is a set of equally long named columns.
type Table struct {
	Columns []string             `json:"columns"`
	Data    map[string][]float64 `json:"data"`
}

// Rows is the common column length.
func (t *Table) Rows() (int, error) {
	n := -1
	for _, c := range t.Columns {
		col, ok := t.Data[c]
		if !ok {
			return 0, fmt.Errorf("storage: missing column %q", c)
		}
		if n >= 0 && len(col) != n {
			return 0, fmt.Errorf("%w: %q has %d rows, expected %d", ErrRaggedTable, c, len(col), n)
		}
		n = len(col)
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

// Save writes a run and returns its id. A fresh id is generated when
// meta.ID is empty.
func (s *Store) Save(meta RunMetadata, table *Table) (string, error) {
	rows, err := table.Rows()
	if err != nil {
		return "", err
	}

	if meta.ID == "" {
		meta.ID = uuid.New().String()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Points = rows
	meta.Variables = append([]string(nil), table.Columns...)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, variablesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, table); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns all readable runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadVariables reads the stored channel table of a run.
func (s *Store) LoadVariables(runID string) (*Table, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, variablesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	table := &Table{Data: make(map[string][]float64)}
	if len(records) == 0 {
		return table, nil
	}

	table.Columns = records[0]
	for _, c := range table.Columns {
		table.Data[c] = make([]float64, 0, len(records)-1)
	}

	for i, record := range records[1:] {
		for j, field := range record {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: row %d column %q: %w", i+1, table.Columns[j], err)
			}
			table.Data[table.Columns[j]] = append(table.Data[table.Columns[j]], val)
		}
	}

	return table, nil
}
