package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	RunMetadata
	Times   []float64   `json:"times"`
	States  [][]float64 `json:"states"`
	Outputs [][]float64 `json:"outputs"`
}

// Export gathers a stored run into a single document.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return nil, err
	}
	outputs, _, err := s.LoadOutputs(runID)
	if err != nil {
		return nil, err
	}
	return &ExportData{RunMetadata: *meta, Times: times, States: states, Outputs: outputs}, nil
}

// ExportJSON writes the run as indented JSON to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	data, err := s.Export(runID)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSONFile writes the run as JSON to path.
func (s *Store) ExportJSONFile(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.ExportJSON(file, runID)
}
