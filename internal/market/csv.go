package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// LoadCSV reads a series from a CSV file with columns date,symbol,close,volume.
// A header row is detected and skipped. Dates are ISO-8601 (2006-01-02).
func LoadCSV(path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV reads a series from CSV data.
func ReadCSV(r io.Reader) (Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4

	series := make(Series, 0, 256)
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}
		line++

		date, err := time.Parse("2006-01-02", record[0])
		if err != nil {
			if line == 1 {
				// header row
				continue
			}
			return nil, fmt.Errorf("invalid date %q on line %d: %w", record[0], line, err)
		}

		closePrice, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid close %q on line %d: %w", record[2], line, err)
		}
		volume, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid volume %q on line %d: %w", record[3], line, err)
		}

		series = append(series, Observation{
			Date:   date,
			Symbol: record[1],
			Close:  closePrice,
			Volume: volume,
		})
	}

	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("invalid series: %w", err)
	}
	return series, nil
}
