package output

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Table is a report ready to be written: one header row and string cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

type Writer interface {
	Write(path string, table Table) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteFile picks the writer from the file extension.
func WriteFile(path string, table Table) error {
	writer, err := WriterForFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	return writer.Write(path, table)
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
