package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		lines = append(lines, m)
	}
	return lines
}

func TestRunGeneratedEvents(t *testing.T) {
	out, err := execute(t, "run", "--events", "2")
	require.NoError(t, err)

	lines := decodeLines(t, out)
	require.Len(t, lines, 3)
	assert.Equal(t, "todo", lines[0]["title"])
	assert.Len(t, lines[2]["items"], 2)
	assert.EqualValues(t, 2, lines[2]["open"])
}

func TestRunCounter(t *testing.T) {
	out, err := execute(t, "run", "--workflow", "counter", "--events", "3")
	require.NoError(t, err)

	lines := decodeLines(t, out)
	require.Len(t, lines, 4)
	assert.EqualValues(t, 3, lines[3]["count"])
}

// A sqlite store keeps the list between two runs.
func TestRunSQLiteResumes(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "flowtree.db")
	path := writeConfig(t, `
store:
  kind: sqlite
  path: `+dbPath+`
events:
  - name: add
    arg: milk
  - name: toggle
    arg: item-1
`)

	_, err := execute(t, "run", "--config", path)
	require.NoError(t, err)

	out, err := execute(t, "run", "--store", "sqlite", "--config", writeConfig(t, "store:\n  path: "+dbPath+"\n"))
	require.NoError(t, err)

	lines := decodeLines(t, out)
	require.Len(t, lines, 1)
	items := lines[0]["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "milk", item["text"])
	assert.Equal(t, true, item["done"])
}

func TestRunErrors(t *testing.T) {
	_, err := execute(t, "run", "--workflow", "missing")
	assert.ErrorContains(t, err, `workflow "missing" not found`)

	_, err = execute(t, "run", "--store", "tape")
	assert.ErrorContains(t, err, `unknown store "tape"`)

	_, err = execute(t, "run", "--log-level", "loud")
	assert.ErrorContains(t, err, "invalid log level")

	_, err = execute(t, "run", "--config", writeConfig(t, "events:\n  - name: fly\n"))
	assert.ErrorContains(t, err, "unknown event")
}

func TestWorkflowsCommand(t *testing.T) {
	out, err := execute(t, "workflows")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "counter")
	assert.Contains(t, lines[2], "todo-list")
}
