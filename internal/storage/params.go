package storage

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParamsFileName is the file name used for one classified parameter collection,
// e.g. limitPointParams-tanh-nx-64-D-0.05.csv.
func ParamsFileName(collection, name string, nx int, dilution float64) string {
	return fmt.Sprintf("%sParams-%s-nx-%d-D-%g.csv", collection, name, nx, dilution)
}

// SaveParams writes one whitespace-delimited row per parameter set. A
// non-empty header is written first as a "# " comment line.
func SaveParams(path, header string, rows [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if header != "" {
		if _, err := fmt.Fprintf(w, "# %s\n", header); err != nil {
			return err
		}
	}
	for _, row := range rows {
		fields := make([]string, len(row))
		for j, v := range row {
			fields[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if _, err := w.WriteString(strings.Join(fields, " ") + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ReadParams reads rows written by SaveParams. Blank lines and lines starting
// with '#' are skipped.
func ReadParams(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows [][]float64
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		row := make([]float64, len(fields))
		for j, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", path, line, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, sc.Err()
}
