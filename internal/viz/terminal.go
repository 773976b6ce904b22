package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/chemosim/internal/dynamo"
)

// ChemostatLabels names the chemostat state components.
var ChemostatLabels = []string{"nutrient x", "prey y", "predator z"}

// PlotTrajectory draws one asciigraph panel per state component.
func PlotTrajectory(traj *dynamo.Trajectory, labels []string, width, height int) string {
	if traj.Len() == 0 {
		return "(empty trajectory)\n"
	}

	var b strings.Builder
	for j := range traj.Dim() {
		caption := fmt.Sprintf("x%d", j)
		if j < len(labels) {
			caption = labels[j]
		}
		t0, t1 := traj.Times[0], traj.Times[traj.Len()-1]
		caption = fmt.Sprintf("%s  (t = %g .. %g)", caption, t0, t1)

		b.WriteString(asciigraph.Plot(traj.Column(j),
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(caption),
		))
		b.WriteString("\n\n")
	}
	return b.String()
}
