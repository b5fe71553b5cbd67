// Package sink persists the result of a run for downstream consumers.
package sink

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilianp07/dockid/core/model"
	"github.com/kilianp07/dockid/infra/logger"
)

// Artifact names written into the output directory.
const (
	DockMACFile     = "dock_mac.txt"
	VINFile         = "vin.txt"
	VehicleIDFile   = "vehicle_id.txt"
	VehicleInfoFile = "vehicle_info.json"
)

// Record is the flat structure of vehicle_info.json. Every field is a string
// and absent values are empty, never null.
type Record struct {
	DockMAC   string `json:"dock_mac"`
	VIN       string `json:"vin"`
	VehicleID string `json:"vehicle_id"`
	Status    string `json:"status"`
	Error     string `json:"error"`
}

// NewRecord flattens a result.
func NewRecord(res model.Result) Record {
	return Record{
		DockMAC:   res.DockMAC,
		VIN:       res.VIN,
		VehicleID: res.VehicleID,
		Status:    res.Status.String(),
		Error:     res.Error,
	}
}

// EncodeRecord renders a record as one JSON line. HTML escaping is off so
// values are written verbatim apart from the mandatory JSON escapes.
func EncodeRecord(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileSink writes the run artifacts into a directory.
type FileSink struct {
	dir       string
	writeFile func(name string, data []byte, perm os.FileMode) error
	log       logger.Logger
}

// NewFileSink returns a sink writing into dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir, writeFile: os.WriteFile, log: logger.New("sink")}
}

// Dir returns the output directory.
func (s *FileSink) Dir() string { return s.dir }

// Persist writes the three text files and vehicle_info.json, replacing any
// previous output. Each artifact is written independently; failures are
// logged and returned joined, the remaining artifacts are still written.
func (s *FileSink) Persist(res model.Result) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	var errs []error
	write := func(name string, data []byte) {
		path := filepath.Join(s.dir, name)
		if err := s.writeFile(path, data, 0o644); err != nil {
			s.log.Warnf("write %s: %v", path, err)
			errs = append(errs, fmt.Errorf("write %s: %w", name, err))
		}
	}
	write(DockMACFile, []byte(res.DockMAC+"\n"))
	write(VINFile, []byte(res.VIN+"\n"))
	write(VehicleIDFile, []byte(res.VehicleID+"\n"))

	data, err := EncodeRecord(NewRecord(res))
	if err != nil {
		errs = append(errs, fmt.Errorf("encode %s: %w", VehicleInfoFile, err))
	} else {
		write(VehicleInfoFile, data)
	}
	return errors.Join(errs...)
}
