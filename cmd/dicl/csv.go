package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/dicl/pkg/errors"
)

func readCSVFile(path string) ([]string, *mat.Dense, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer func() { _ = file.Close() }()

	names, X, err := readCSV(file)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read %s", path)
	}
	return names, X, nil
}

// readCSV parses a numeric table. A first row that does not parse as numbers is taken
// as the header; otherwise the features are named f0..f{n-1}.
func readCSV(r io.Reader) ([]string, *mat.Dense, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse CSV")
	}
	if len(records) == 0 {
		return nil, nil, errors.NewModelError("readCSV", "no rows", errors.ErrEmptyData)
	}

	var names []string
	if _, err := parseRow(records[0]); err != nil {
		names = make([]string, len(records[0]))
		for j, field := range records[0] {
			names[j] = strings.TrimSpace(field)
		}
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, nil, errors.NewModelError("readCSV", "no data rows", errors.ErrEmptyData)
	}

	cols := len(records[0])
	if names == nil {
		names = make([]string, cols)
		for j := range names {
			names[j] = fmt.Sprintf("f%d", j)
		}
	}

	X := mat.NewDense(len(records), cols, nil)
	for i, record := range records {
		row, err := parseRow(record)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "row %d", i)
		}
		X.SetRow(i, row)
	}
	return names, X, nil
}

func parseRow(record []string) ([]float64, error) {
	row := make([]float64, len(record))
	for j, field := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, errors.NewValueError("readCSV", fmt.Sprintf("column %d: %q is not a number", j, field))
		}
		if err := errors.CheckScalar("readCSV", v); err != nil {
			return nil, err
		}
		row[j] = v
	}
	return row, nil
}
