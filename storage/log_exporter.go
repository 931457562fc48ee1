package storage

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// ExportSessionLog connects to the SQLite database at dbPath, reads every
// row from tableName ("Sessions" or "Frames"), and writes it to outputPath
// in the given format ("csv" or "json"); an empty outputPath writes to
// stdout.
func ExportSessionLog(dbPath, tableName, format, outputPath string) error {
	switch tableName {
	case "Sessions", "Frames":
	default:
		return fmt.Errorf("unsupported table '%s', supported tables are 'Sessions', 'Frames'", tableName)
	}

	db, err := sql.Open("sqlite3", dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open sqlite database at %s: %w", dbPath, err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping sqlite database at %s: %w", dbPath, err)
	}

	var out io.Writer = os.Stdout
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		defer file.Close()
		out = file
	}

	rows, err := db.Query(fmt.Sprintf("SELECT * FROM %s", tableName))
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", tableName, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read columns for %s: %w", tableName, err)
	}

	switch format {
	case "csv":
		return exportRowsCSV(rows, cols, out)
	case "json":
		return exportRowsJSON(rows, cols, out)
	default:
		return fmt.Errorf("unsupported format '%s', supported formats are 'csv', 'json'", format)
	}
}

func scanRow(rows *sql.Rows, cols []string) ([]interface{}, error) {
	raw := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return raw, nil
}

func exportRowsCSV(rows *sql.Rows, cols []string, out io.Writer) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	if err := writer.Write(cols); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for rows.Next() {
		raw, err := scanRow(rows, cols)
		if err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		record := make([]string, len(cols))
		for i, v := range raw {
			record[i] = fmt.Sprint(v)
			if v == nil {
				record[i] = ""
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	return rows.Err()
}

func exportRowsJSON(rows *sql.Rows, cols []string, out io.Writer) error {
	var records []map[string]interface{}
	for rows.Next() {
		raw, err := scanRow(rows, cols)
		if err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		record := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			record[col] = raw[i]
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize rows to JSON: %w", err)
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}
