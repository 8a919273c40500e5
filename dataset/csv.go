package dataset

import (
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"

	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// ReadCSV loads a CSV file into a Table with automatic type detection.
// Common NA markers are recognized and surface as missing values.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: opening %s", path)
	}
	defer f.Close()
	return ReadCSVFrom(f)
}

// ReadCSVFrom loads CSV data from a reader.
func ReadCSVFrom(r io.Reader) (*Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues([]string{"", "NA", "NaN", "N/A", "null", "<NA>"}),
	)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "dataset: reading csv")
	}
	if df.Nrow() == 0 {
		return nil, errors.NewModelError("dataset.ReadCSV", "empty data", errors.ErrEmptyData)
	}
	return &Table{df: df}, nil
}

// WriteCSV writes the table to a CSV file, header included.
func WriteCSV(t *Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "dataset: creating %s", path)
	}
	defer f.Close()
	if err := t.df.WriteCSV(f); err != nil {
		return errors.Wrap(err, "dataset: writing csv")
	}
	return nil
}
