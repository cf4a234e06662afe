// Package audit provides PDR (Process Decision Record) writing for TaskMaster.
//
// Every reminder dispatch and every catalog change leaves one record. Inputs
// are stored as a hash so two records can be compared without keeping task
// contents in the audit table.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/taskmaster/internal/models"
)

// Actions recorded by TaskMaster.
const (
	ActionDispatch   = "reminder.dispatch"
	ActionTaskCreate = "task.create"
	ActionTaskDelete = "task.delete"
	ActionProcess    = "process.run" // a pass started on demand
)

// Sink persists records. store.Store satisfies it.
type Sink interface {
	WritePDR(action, inputsHash, outcome, taskID, details string) (*models.PDREntry, error)
}

// PDRWriter writes Process Decision Records for audit trails.
type PDRWriter struct {
	sink Sink
}

// NewPDRWriter creates a new PDR writer.
func NewPDRWriter(s Sink) *PDRWriter {
	return &PDRWriter{sink: s}
}

// Record writes a PDR entry for a state-mutating action.
func (w *PDRWriter) Record(action string, inputs interface{}, outcome, taskID, details string) (*models.PDREntry, error) {
	inputsHash := hashInputs(inputs)
	return w.sink.WritePDR(action, inputsHash, outcome, taskID, details)
}

// hashInputs creates a SHA256 hash of the inputs for reproducibility.
func hashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
