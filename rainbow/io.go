package rainbow

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// SummaryToFile writes the run summary as JSON.
func SummaryToFile(summary Summary, path string) error {
	vf, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to open output file: %w", err)
	}

	enc := json.NewEncoder(vf)
	enc.SetIndent("", "  ")
	err = enc.Encode(summary)
	if err != nil {
		vf.Close()
		return fmt.Errorf("unable to write output: %w", err)
	}

	return vf.Close()
}

// WriteCosts writes one row per trial with its index and search cost, in
// trial order, for downstream statistical tooling.
func WriteCosts(results []TrialResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to open output file: %w", err)
	}

	w := csv.NewWriter(f)

	err = w.Write([]string{"trial", "cost", "found"})
	if err != nil {
		f.Close()
		return fmt.Errorf("unable to write output: %w", err)
	}
	for _, res := range results {
		row := []string{strconv.Itoa(res.Index + 1), strconv.Itoa(res.Cost), strconv.FormatBool(res.Found())}
		err = w.Write(row)
		if err != nil {
			f.Close()
			return fmt.Errorf("unable to write output: %w", err)
		}
	}

	w.Flush()
	if err = w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("unable to flush CSV writer: %w", err)
	}

	return f.Close()
}

// ReadCosts reads the cost column of a file written by WriteCosts.
func ReadCosts(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open cost file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to decode cost file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Throw away the header line
	costs := make([]float64, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 2 {
			return nil, fmt.Errorf("malformed cost row %v", row)
		}
		c, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed cost %q: %w", row[1], err)
		}
		costs = append(costs, c)
	}
	return costs, nil
}
