// Package output serializes run results as a single JSON document or as
// JSON Lines with the run metadata on the first line.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/use-agent/scout/models"
)

// Supported output formats.
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

// jsonlHeader wraps the metadata so the first line of a JSONL file is
// distinguishable from a record line.
type jsonlHeader struct {
	Metadata models.RunMetadata `json:"metadata"`
}

// WriteJSON writes the whole run as one indented JSON document.
func WriteJSON(w io.Writer, run *models.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(run)
}

// WriteJSONL writes the run as JSON Lines: the metadata object first,
// then one record per line in output order.
func WriteJSONL(w io.Writer, run *models.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(jsonlHeader{Metadata: run.Metadata}); err != nil {
		return err
	}
	for i := range run.Results {
		if err := enc.Encode(&run.Results[i]); err != nil {
			return err
		}
	}
	return nil
}

// Write dispatches on format.
func Write(w io.Writer, run *models.RunResult, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return WriteJSON(w, run)
	case FormatJSONL:
		return WriteJSONL(w, run)
	default:
		return fmt.Errorf("output: unknown format %q", format)
	}
}

// WriteFile writes the run to path, or to stdout when path is "-" or empty.
func WriteFile(path string, run *models.RunResult, format string) error {
	if path == "" || path == "-" {
		return Write(os.Stdout, run, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := Write(f, run, format); err != nil {
		return err
	}
	return f.Sync()
}

// ReadJSONL parses a JSON Lines stream produced by WriteJSONL.
func ReadJSONL(r io.Reader) (*models.RunResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)

	run := &models.RunResult{}
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if first {
			var header jsonlHeader
			if err := json.Unmarshal([]byte(line), &header); err != nil {
				return nil, fmt.Errorf("output: bad metadata line: %w", err)
			}
			run.Metadata = header.Metadata
			first = false
			continue
		}
		var record models.ExtractedRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("output: bad record line: %w", err)
		}
		run.Results = append(run.Results, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if first {
		return nil, fmt.Errorf("output: empty stream")
	}
	return run, nil
}
