// Package storage persists simulation runs as a directory per run holding
// metadata.json, states.csv, outputs.csv and the diagram that produced them.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/blocksim/internal/config"
	"github.com/san-kum/blocksim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	outputsFile  = "outputs.csv"
	diagramFile  = "diagram.yaml"
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

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Integrator  string             `json:"integrator"`
	Adaptive    bool               `json:"adaptive,omitempty"`
	StateShape  string             `json:"state_shape"`
	InputShape  string             `json:"input_shape"`
	OutputShape string             `json:"output_shape"`
	Steps       int                `json:"steps"`
	Metrics     map[string]float64 `json:"metrics"`
	// Error is set when the run stopped early; the stored samples are the
	// partial result.
	Error string `json:"error,omitempty"`
}

// Save writes result under a new run directory and returns its ID. cfg is
// stored alongside so the run can be reproduced. runErr, if non-nil, is
// recorded as the reason the run ended early.
func (s *Store) Save(cfg *config.Config, meta RunMetadata, result *sim.Result, runErr error) (string, error) {
	name := meta.Name
	if name == "" {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%d", name, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Name = name
	meta.Timestamp = time.Now()
	meta.Steps = len(result.Times)
	meta.Metrics = result.Metrics
	if runErr != nil {
		meta.Error = runErr.Error()
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if cfg != nil {
		if err := config.Save(filepath.Join(runDir, diagramFile), cfg); err != nil {
			return "", err
		}
	}

	if err := writeSeries(filepath.Join(runDir, statesFile), result.Times, []column{{"x", result.States}, {"u", result.Inputs}}); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, outputsFile), result.Times, []column{{"y", result.Outputs}}); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type column struct {
	prefix string
	rows   [][]float64
}

func writeSeries(path string, times []float64, cols []column) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{"time"}
	for _, c := range cols {
		if len(c.rows) == 0 {
			continue
		}
		for i := range c.rows[0] {
			header = append(header, fmt.Sprintf("%s%d", c.prefix, i))
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, t := range times {
		row := []string{strconv.FormatFloat(t, 'g', -1, 64)}
		for _, c := range cols {
			if i >= len(c.rows) {
				continue
			}
			for _, val := range c.rows[i] {
				row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns stored runs, oldest first.
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

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadConfig returns the diagram a run was produced from.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, diagramFile))
}

// LoadStates returns the states.csv rows (state then input columns) and times.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	return s.loadSeries(runID, statesFile)
}

func (s *Store) LoadOutputs(runID string) ([][]float64, []float64, error) {
	return s.loadSeries(runID, outputsFile)
}

func (s *Store) loadSeries(runID, name string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	rows := make([][]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", name, i+1, err)
		}

		row := make([]float64, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s line %d: %w", name, i+1, err)
			}
			row = append(row, val)
		}
		times = append(times, t)
		rows = append(rows, row)
	}

	return rows, times, nil
}

// Column extracts column i from rows.
func Column(rows [][]float64, i int) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if i < len(r) {
			out = append(out, r[i])
		}
	}
	return out
}
