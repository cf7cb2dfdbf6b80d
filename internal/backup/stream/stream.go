// Package stream reads and writes JSONL entity files inside zip archives.
// One line per record keeps archives diffable and lets restores decode
// records without holding the raw file in memory.
package stream

import (
	"archive/zip"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"encoding/json/v2"
)

// ErrFileNotFound indicates a file was not found in the backup archive.
var ErrFileNotFound = errors.New("file not found in backup")

// WriteJSONL adds a file to the archive with one JSON document per line.
func WriteJSONL[T any](zw *zip.Writer, name string, records []T) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	bw := bufio.NewWriter(w)
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode %s record: %w", name, err)
		}
		if _, err := bw.Write(data); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadJSONL decodes every line of a JSONL file in the archive.
// A missing file is ErrFileNotFound so callers can treat absent entity
// types as empty.
func ReadJSONL[T any](zr *zip.Reader, name string) ([]T, error) {
	rc, err := open(zr, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var records []T
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", name, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func open(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, ErrFileNotFound
}
