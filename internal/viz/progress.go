package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// UnitDoneMsg reports one finished dilution of a sweep.
type UnitDoneMsg struct {
	Dilution    float64
	Worker      int
	Samples     int
	LimitPoints int
	LimitCycles int
	Err         error
}

// SweepDoneMsg ends the progress view.
type SweepDoneMsg struct{ Err error }

type tickMsg time.Time

type unitState struct {
	dilution float64
	done     *UnitDoneMsg
}

// SweepProgress is a bubbletea model listing each dilution of a sweep.
type SweepProgress struct {
	units    []unitState
	started  time.Time
	now      time.Time
	frame    int
	finished bool
	Err      error
}

func NewSweepProgress(dilutions []float64) SweepProgress {
	units := make([]unitState, len(dilutions))
	for i, d := range dilutions {
		units[i] = unitState{dilution: d}
	}
	now := time.Now()
	return SweepProgress{units: units, started: now, now: now}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m SweepProgress) Init() tea.Cmd { return tick() }

func (m SweepProgress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tickMsg:
		m.now = time.Time(msg)
		m.frame++
		if m.finished {
			return m, nil
		}
		return m, tick()
	case UnitDoneMsg:
		for i := range m.units {
			if m.units[i].dilution == msg.Dilution && m.units[i].done == nil {
				m.units[i].done = &msg
				break
			}
		}
	case SweepDoneMsg:
		m.finished = true
		m.Err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

// Completed counts the units with a reply.
func (m SweepProgress) Completed() int {
	n := 0
	for _, u := range m.units {
		if u.done != nil {
			n++
		}
	}
	return n
}

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m SweepProgress) View() string {
	var b strings.Builder
	b.WriteString(Title.Render("dilution sweep"))
	b.WriteString("\n\n")

	for _, u := range m.units {
		fmt.Fprintf(&b, "  D = %-8g ", u.dilution)
		switch {
		case u.done == nil:
			b.WriteString(StatusRunning.Render(spinner[m.frame%len(spinner)] + " running"))
		case u.done.Err != nil:
			b.WriteString(StatusFailed.Render("✗ " + u.done.Err.Error()))
		default:
			total := u.done.LimitPoints + u.done.LimitCycles
			frac := 0.0
			if total > 0 {
				frac = float64(u.done.LimitPoints) / float64(total)
			}
			b.WriteString(StatusDone.Render("✓"))
			fmt.Fprintf(&b, " %s %s", ProgressBar(frac, 20),
				MetricLabel.Render(fmt.Sprintf("%d limit points / %d limit cycles (worker %d)",
					u.done.LimitPoints, u.done.LimitCycles, u.done.Worker)))
		}
		b.WriteString("\n")
	}

	done := m.Completed()
	frac := 0.0
	if len(m.units) > 0 {
		frac = float64(done) / float64(len(m.units))
	}
	fmt.Fprintf(&b, "\n  %s %d/%d  %s\n", ProgressBar(frac, 30), done, len(m.units),
		Subtle.Render(m.now.Sub(m.started).Round(time.Second).String()))
	if !m.finished {
		b.WriteString(Subtle.Render("  q to detach") + "\n")
	}
	return b.String()
}
