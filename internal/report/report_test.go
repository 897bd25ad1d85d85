package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/buildgrid/internal/plan"
	"gopkg.in/yaml.v3"
)

func sampleOutcomes() []plan.Outcome {
	return []plan.Outcome{
		{Name: "Clean", Status: plan.Skipped, Reason: "not requested (ordering only)"},
		{Name: "Restore", Status: plan.Succeeded, Duration: 1200 * time.Millisecond},
		{Name: "Compile", Status: plan.Failed, Duration: time.Second, Err: errors.New("exit status 1")},
		{Name: "Test", Status: plan.Failed, Err: errors.New("target 'Test' blocked: dependency 'Compile' failed")},
	}
}

func TestSummarize(t *testing.T) {
	t.Run("failure", func(t *testing.T) {
		code, text := Summarize(sampleOutcomes())

		assert.Equal(t, ExitFailed, code)
		assert.Contains(t, text, "Failures:")
		assert.Contains(t, text, "Compile: exit status 1")
		assert.Contains(t, text, "1 succeeded, 2 failed, 1 skipped")

		// Rows follow the order they were given in.
		order := []string{"Clean", "Restore", "Compile", "Test"}
		last := -1
		for _, name := range order {
			idx := strings.Index(text, name)
			require.NotEqual(t, -1, idx, name)
			assert.Greater(t, idx, last, name)
			last = idx
		}
	})

	t.Run("success", func(t *testing.T) {
		code, text := Summarize([]plan.Outcome{
			{Name: "Test", Status: plan.Succeeded, Partitions: []plan.PartitionOutcome{
				{Index: 0, Status: plan.Succeeded}, {Index: 1, Status: plan.Succeeded},
			}},
		})
		assert.Equal(t, ExitOK, code)
		assert.NotContains(t, text, "Failures:")
		assert.Contains(t, text, "2/2")
		assert.Contains(t, text, "Build succeeded")
	})

	t.Run("skipped only is success", func(t *testing.T) {
		code, _ := Summarize([]plan.Outcome{{Name: "Clean", Status: plan.Skipped}})
		assert.Equal(t, ExitOK, code)
	})

	t.Run("empty", func(t *testing.T) {
		code, text := Summarize(nil)
		assert.Equal(t, ExitOK, code)
		assert.Equal(t, "No targets executed.\n", text)
	})
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	outcomes := sampleOutcomes()
	outcomes[1].Partitions = []plan.PartitionOutcome{{Index: 0, Items: 3, Status: plan.Succeeded, Duration: time.Second}}
	outcomes[2].Produces = []string{"bin/*.dll"}
	outcomes[2].Consumes = []string{"obj/project.assets.json"}

	doc := NewDocument("run-1", started, started.Add(3*time.Second), outcomes)
	require.NoError(t, WriteFile(path, doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Document
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, ExitFailed, decoded.ExitCode)
	require.Len(t, decoded.Targets, 4)
	assert.Equal(t, "Skipped", decoded.Targets[0].Status)
	assert.Equal(t, int64(1200), decoded.Targets[1].DurationMS)
	assert.Equal(t, 3, decoded.Targets[1].Partitions[0].Items)
	assert.Equal(t, "exit status 1", decoded.Targets[2].Error)
	assert.Equal(t, []string{"bin/*.dll"}, decoded.Targets[2].Produces)
	assert.Equal(t, []string{"obj/project.assets.json"}, decoded.Targets[2].Consumes)
	assert.Empty(t, decoded.Targets[0].Produces)

	assert.Contains(t, string(data), "produces:")
	assert.Contains(t, string(data), "consumes:")
}

func TestWriteFile_BadPath(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "report.yaml"), Document{})
	assert.Error(t, err)
}
