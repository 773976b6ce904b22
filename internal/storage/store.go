package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/chemosim/internal/dynamo"
	"github.com/san-kum/chemosim/internal/mcmc"
)

var ErrNotFound = errors.New("storage: run not found")

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

type RunMetadata struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Response       string     `json:"response"`
	Sampler        string     `json:"sampler"`
	Dilution       float64    `json:"dilution"`
	NX             int        `json:"nx"`
	Seed           uint64     `json:"seed"`
	Stats          mcmc.Stats `json:"stats"`
	LimitPoints    int        `json:"limit_points"`
	LimitCycles    int        `json:"limit_cycles"`
	LogFile        string     `json:"log_file,omitempty"`
	LimitPointFile string     `json:"limit_point_file,omitempty"`
	LimitCycleFile string     `json:"limit_cycle_file,omitempty"`
	Started        time.Time  `json:"started"`
	Finished       time.Time  `json:"finished"`
	Error          string     `json:"error,omitempty"`
}

// NewRun allocates a run id and creates its directory.
func (s *Store) NewRun(name string) (string, error) {
	runID := fmt.Sprintf("%s_%s", name, uuid.NewString()[:8])
	if err := os.MkdirAll(s.RunDir(runID), 0755); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

func (s *Store) SaveMetadata(meta RunMetadata) error {
	f, err := os.Create(filepath.Join(s.RunDir(meta.ID), "metadata.json"))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), "metadata.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// List returns the metadata of every run, oldest first. Directories without
// readable metadata are skipped.
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

	slices.SortFunc(runs, func(a, b RunMetadata) int { return a.Started.Compare(b.Started) })
	return runs, nil
}

// SaveTrajectory writes traj as states.csv in the run directory.
func (s *Store) SaveTrajectory(runID string, traj *dynamo.Trajectory) error {
	f, err := os.Create(filepath.Join(s.RunDir(runID), "states.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteTrajectoryCSV(f, traj)
}

func WriteTrajectoryCSV(out io.Writer, traj *dynamo.Trajectory) error {
	w := csv.NewWriter(out)

	header := []string{"time"}
	for i := range traj.Dim() {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, x := range traj.States {
		row := []string{strconv.FormatFloat(traj.Times[i], 'g', -1, 64)}
		for _, val := range x {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func (s *Store) LoadTrajectory(runID string) (*dynamo.Trajectory, error) {
	f, err := os.Open(filepath.Join(s.RunDir(runID), "states.csv"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no trajectory for %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return dynamo.NewTrajectory(0), nil
	}

	traj := dynamo.NewTrajectory(len(records) - 1)
	for line, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: states.csv line %d: %w", line+2, err)
			}
			vals[j] = v
		}
		traj.Append(vals[0], dynamo.State(vals[1:]))
	}
	return traj, nil
}
