package bruteforce

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// WriteIterations writes one row per repetition with its iteration count.
func WriteIterations(counts []int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to open output file: %w", err)
	}

	w := csv.NewWriter(f)
	err = w.Write([]string{"Iteration", "Count"})
	if err != nil {
		f.Close()
		return fmt.Errorf("unable to write output: %w", err)
	}
	for i, c := range counts {
		err = w.Write([]string{strconv.Itoa(i + 1), strconv.Itoa(c)})
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
