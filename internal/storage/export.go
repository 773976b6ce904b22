package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/chemosim/internal/dynamo"
)

type ExportData struct {
	Response string      `json:"response"`
	Stepper  string      `json:"stepper"`
	Dilution float64     `json:"dilution"`
	Duration float64     `json:"duration"`
	Params   []float64   `json:"params"`
	Samples  int         `json:"samples"`
	Times    []float64   `json:"times"`
	States   [][]float64 `json:"states"`
}

// ExportJSON writes a single integration as indented JSON.
func ExportJSON(w io.Writer, data ExportData, traj *dynamo.Trajectory) error {
	data.Samples = traj.Len()
	data.Times = traj.Times
	data.States = make([][]float64, traj.Len())
	for i, s := range traj.States {
		data.States[i] = s
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
