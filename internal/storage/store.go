// Package storage keeps headless runs on disk: one directory per run with
// metadata.json, samples.csv (per-tick aggregates) and states.csv
// (per-particle history).
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/metrics"
	"github.com/san-kum/tetrasim/internal/sim"
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
	ID         string                   `json:"id"`
	Name       string                   `json:"name"`
	Timestamp  time.Time                `json:"timestamp"`
	Seed       int64                    `json:"seed"`
	Steps      int                      `json:"steps"`
	Settings   sim.Settings             `json:"settings"`
	Particles  []string                 `json:"particles"`
	Parameters map[string]dynamo.Params `json:"parameters"`
	Metrics    map[string]float64       `json:"metrics"`
}

// Recording is everything captured from one run.
type Recording struct {
	Meta      RunMetadata
	Samples   []metrics.Sample
	Histories map[string][]sim.HistoryPoint
}

// Capture collects a recording from a controller after a run.
func Capture(name string, c *sim.Controller, result *sim.Result) *Recording {
	rec := &Recording{
		Meta: RunMetadata{
			Name:       name,
			Seed:       result.Seed,
			Steps:      result.StepsTaken,
			Settings:   c.Settings(),
			Particles:  c.IDs(),
			Parameters: make(map[string]dynamo.Params),
			Metrics:    result.Metrics,
		},
		Samples:   result.Samples,
		Histories: make(map[string][]sim.HistoryPoint),
	}
	for _, id := range rec.Meta.Particles {
		if v, ok := c.Oscillator(id); ok {
			rec.Meta.Parameters[id] = v.Parameters
		}
		if h, ok := c.History(id, 0); ok {
			rec.Histories[id] = h
		}
	}
	return rec
}

// Save writes rec under a new run id and returns it.
func (s *Store) Save(rec *Recording) (string, error) {
	runID := fmt.Sprintf("%s_%s", rec.Meta.Name, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	rec.Meta.ID = runID
	rec.Meta.Timestamp = time.Now()

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), rec.Meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, "samples.csv"), func(w *csv.Writer) error {
		return writeSamples(w, rec.Samples)
	}); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, "states.csv"), func(w *csv.Writer) error {
		return WriteStates(w, rec.Meta.Particles, rec.Histories)
	}); err != nil {
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

func writeCSV(path string, fill func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := fill(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func writeSamples(w *csv.Writer, samples []metrics.Sample) error {
	if err := w.Write([]string{"time", "oscillators", "total_energy", "average_stability"}); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{ff(s.Time), strconv.Itoa(s.Oscillators), ff(s.TotalEnergy), ff(s.AverageStability)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteStates writes one row per recorded state, grouped by particle in ids
// order.
func WriteStates(w *csv.Writer, ids []string, histories map[string][]sim.HistoryPoint) error {
	header := append([]string{"particle_id", "time"}, dynamo.DimensionNames[:]...)
	header = append(header, "magnitude")
	if err := w.Write(header); err != nil {
		return err
	}
	for _, id := range ids {
		for _, p := range histories[id] {
			row := []string{id, ff(p.Time), ff(p.State.W1), ff(p.State.W2), ff(p.State.W3), ff(p.State.W4), ff(p.Magnitude)}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// List returns every readable run, newest first.
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("run %s: %w", runID, dynamo.ErrNotFound)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func parseRow(record []string) []float64 {
	vals := make([]float64, 0, len(record))
	for _, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil
		}
		vals = append(vals, v)
	}
	return vals
}

// LoadSamples reads the per-tick aggregates of a run. Malformed rows are skipped.
func (s *Store) LoadSamples(runID string) ([]metrics.Sample, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}

	samples := make([]metrics.Sample, 0, len(records))
	for i := 1; i < len(records); i++ {
		vals := parseRow(records[i])
		if len(vals) != 4 {
			continue
		}
		samples = append(samples, metrics.Sample{
			Time:             vals[0],
			Oscillators:      int(vals[1]),
			TotalEnergy:      vals[2],
			AverageStability: vals[3],
		})
	}
	return samples, nil
}

// LoadStates reads the per-particle histories of a run, oldest first.
func (s *Store) LoadStates(runID string) (map[string][]sim.HistoryPoint, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}

	out := make(map[string][]sim.HistoryPoint)
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) != 7 {
			continue
		}
		vals := parseRow(record[1:])
		if vals == nil {
			continue
		}
		id := record[0]
		out[id] = append(out[id], sim.HistoryPoint{
			Time:      vals[0],
			State:     dynamo.StateVector{W1: vals[1], W2: vals[2], W3: vals[3], W4: vals[4]},
			Magnitude: vals[5],
		})
	}
	return out, nil
}

// ExportData is the JSON form of a stored run.
type ExportData struct {
	Meta      RunMetadata                   `json:"metadata"`
	Samples   []metrics.Sample              `json:"samples"`
	Histories map[string][]sim.HistoryPoint `json:"histories"`
}

// ExportJSON writes the whole run to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}
	states, err := s.LoadStates(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Meta: *meta, Samples: samples, Histories: states})
}

// ExportCSV writes the per-particle states of a run to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	states, err := s.LoadStates(runID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := WriteStates(cw, meta.Particles, states); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
