package report

import (
	"fmt"
	"os"
	"time"

	"github.com/vk/buildgrid/internal/plan"
	"gopkg.in/yaml.v3"
)

// Document is the machine-readable form of a run, written with -report-file.
type Document struct {
	RunID    string         `yaml:"run_id"`
	Started  time.Time      `yaml:"started"`
	Finished time.Time      `yaml:"finished"`
	ExitCode int            `yaml:"exit_code"`
	Targets  []TargetRecord `yaml:"targets"`
}

// TargetRecord is one outcome inside a Document.
type TargetRecord struct {
	Name       string            `yaml:"name"`
	Status     string            `yaml:"status"`
	DurationMS int64             `yaml:"duration_ms"`
	Reason     string            `yaml:"reason,omitempty"`
	Error      string            `yaml:"error,omitempty"`
	Partitions []PartitionRecord `yaml:"partitions,omitempty"`
	Produces   []string          `yaml:"produces,omitempty"`
	Consumes   []string          `yaml:"consumes,omitempty"`
}

// PartitionRecord is one partition inside a TargetRecord.
type PartitionRecord struct {
	Index      int    `yaml:"index"`
	Items      int    `yaml:"items"`
	Status     string `yaml:"status"`
	DurationMS int64  `yaml:"duration_ms"`
	Error      string `yaml:"error,omitempty"`
}

// NewDocument builds a Document from outcomes.
func NewDocument(runID string, started, finished time.Time, outcomes []plan.Outcome) Document {
	doc := Document{
		RunID:    runID,
		Started:  started.UTC(),
		Finished: finished.UTC(),
		ExitCode: ExitCode(outcomes),
		Targets:  make([]TargetRecord, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		rec := TargetRecord{
			Name:       o.Name,
			Status:     o.Status.String(),
			DurationMS: o.Duration.Milliseconds(),
			Reason:     o.Reason,
			Error:      errString(o.Err),
			Produces:   o.Produces,
			Consumes:   o.Consumes,
		}
		for _, p := range o.Partitions {
			rec.Partitions = append(rec.Partitions, PartitionRecord{
				Index:      p.Index,
				Items:      p.Items,
				Status:     p.Status.String(),
				DurationMS: p.Duration.Milliseconds(),
				Error:      errString(p.Err),
			})
		}
		doc.Targets = append(doc.Targets, rec)
	}
	return doc
}

// WriteFile writes doc as YAML to path.
func WriteFile(path string, doc Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report file %s: %w", path, err)
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
