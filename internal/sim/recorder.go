package sim

import (
	"errors"
	"fmt"
	"io"

	"github.com/san-kum/chemosim/internal/dynamo"
)

// ErrRecorderFull is returned when a write is attempted after the last
// report slot has been filled.
var ErrRecorderFull = errors.New("sim: all report slots already written")

// Recorder receives the state at evenly spaced report times. The schedule is
// fixed at construction; a recorder cannot be rewound, only replaced.
type Recorder interface {
	// NeedToWrite reports whether the next report time lies in [t, t+dt].
	NeedToWrite(t, dt float64) bool
	// NextTime is the time of the next unwritten slot.
	NextTime() float64
	// Write stores x for the next slot and advances exactly one slot.
	Write(t float64, x dynamo.State) error
}

// schedule holds nReport+1 slot times t0 + k*(t1-t0)/nReport, k = 0..nReport.
type schedule struct {
	t0       float64
	interval float64
	slots    int
	next     int
}

func newSchedule(t0, t1 float64, nReport int) (schedule, error) {
	if nReport < 1 {
		return schedule{}, fmt.Errorf("sim: report count must be positive, got %d", nReport)
	}
	if t1 < t0 {
		return schedule{}, fmt.Errorf("sim: interval end %g precedes start %g", t1, t0)
	}
	return schedule{
		t0:       t0,
		interval: (t1 - t0) / float64(nReport),
		slots:    nReport + 1,
	}, nil
}

func (s *schedule) remaining() bool { return s.next < s.slots }

func (s *schedule) NextTime() float64 {
	return s.t0 + float64(s.next)*s.interval
}

func (s *schedule) NeedToWrite(t, dt float64) bool {
	if !s.remaining() {
		return false
	}
	tn := s.NextTime()
	return tn >= t && tn <= t+dt
}

func (s *schedule) advance() (float64, error) {
	if !s.remaining() {
		return 0, ErrRecorderFull
	}
	tn := s.NextTime()
	s.next++
	return tn, nil
}

// MemoryRecorder accumulates the report points into a Trajectory.
// Recorded times are the scheduled slot times, not the times passed to Write.
type MemoryRecorder struct {
	schedule
	traj *dynamo.Trajectory
}

func NewMemoryRecorder(t0, t1 float64, nReport int) (*MemoryRecorder, error) {
	s, err := newSchedule(t0, t1, nReport)
	if err != nil {
		return nil, err
	}
	return &MemoryRecorder{schedule: s, traj: dynamo.NewTrajectory(s.slots)}, nil
}

func (m *MemoryRecorder) Write(_ float64, x dynamo.State) error {
	tn, err := m.advance()
	if err != nil {
		return err
	}
	m.traj.Append(tn, x)
	return nil
}

func (m *MemoryRecorder) Trajectory() *dynamo.Trajectory { return m.traj }

// StreamRecorder writes one whitespace separated line per slot:
// the time followed by each state component.
type StreamRecorder struct {
	schedule
	w io.Writer
}

func NewStreamRecorder(w io.Writer, t0, t1 float64, nReport int) (*StreamRecorder, error) {
	s, err := newSchedule(t0, t1, nReport)
	if err != nil {
		return nil, err
	}
	return &StreamRecorder{schedule: s, w: w}, nil
}

func (r *StreamRecorder) Write(_ float64, x dynamo.State) error {
	tn, err := r.advance()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(r.w, "%g", tn); err != nil {
		return err
	}
	for _, v := range x {
		if _, err := fmt.Fprintf(r.w, " %g", v); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(r.w)
	return err
}
