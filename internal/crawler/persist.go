package crawler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"opuscat/pkg/models"
)

// WriteRecords persists acquisition records as one JSON object per line so
// the load stage has a defined, parseable intermediate schema.
func WriteRecords(path string, records []models.AcquisitionRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create records file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}
	return nil
}

// ReadRecords loads a JSONL records file. Blank and malformed lines are
// logged and skipped; acquisition output is best-effort by design.
func ReadRecords(path string, logger *slog.Logger) ([]models.AcquisitionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records file: %w", err)
	}
	defer f.Close()

	var records []models.AcquisitionRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec models.AcquisitionRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			logger.Warn("skipping malformed record line", "file", path, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}
	return records, nil
}
