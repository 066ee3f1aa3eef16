package features

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// Record is the parquet layout of a Row, with the embeddings kept as two lists.
type Record struct {
	ID    string    `parquet:"id"`
	Front []float32 `parquet:"front,list"`
	Side  []float32 `parquet:"side,list"`
}

// Records splits every row back into its front and side halves.
func (t *Table) Records() []Record {
	records := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		half := len(row.Values) / 2
		records = append(records, Record{
			ID:    row.ID,
			Front: row.Values[:half],
			Side:  row.Values[half:],
		})
	}
	return records
}

// WriteParquet writes the table to w.
func (t *Table) WriteParquet(w io.Writer) error {
	writer := parquet.NewGenericWriter[Record](w)
	if _, err := writer.Write(t.Records()); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet: %w", err)
	}
	return nil
}

// WriteParquetFile writes the table to a new file at path.
func (t *Table) WriteParquetFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := t.WriteParquet(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ReadParquetFile loads records written by WriteParquetFile.
func ReadParquetFile(path string) ([]Record, error) {
	records, err := parquet.ReadFile[Record](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet %s: %w", path, err)
	}
	return records, nil
}
