package memberdraw

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

const utf8BOM = "\uFEFF"

// LoadBlacklistCSV reads the sidecar blacklist file. A missing file is an empty list.
func LoadBlacklistCSV(path string) ([]int, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, newError(ErrBlacklistFile, "LoadBlacklistCSV", path).WithCause(err)
	}
	defer f.Close()

	numbers, err := ReadBlacklistCSV(f)
	if err != nil {
		var re *RaffleError
		if errors.As(err, &re) {
			return nil, re.WithMetadata("file", path)
		}
		return nil, err
	}
	return numbers, nil
}

// ReadBlacklistCSV reads member numbers from every cell of a CSV document.
// Rows may have any number of cells; blank cells are skipped.
func ReadBlacklistCSV(r io.Reader) ([]int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var numbers []int
	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return numbers, nil
		}
		if err != nil {
			return nil, newError(ErrBlacklistFile, "ReadBlacklistCSV", err.Error()).WithCause(err)
		}

		for col, cell := range record {
			if first && col == 0 {
				cell = strings.TrimPrefix(cell, utf8BOM)
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			n, err := strconv.Atoi(cell)
			if err != nil {
				row, _ := reader.FieldPos(col)
				return nil, newError(ErrInvalidInput, "ReadBlacklistCSV",
					fmt.Sprintf("row %d, column %d: %q is not a whole number", row, col+1, cell)).
					WithCause(err).
					WithMetadata("row", row).
					WithMetadata("column", col+1)
			}
			numbers = append(numbers, n)
		}
	}
}
