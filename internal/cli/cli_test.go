package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFleet lays a two-instance fleet down in a temp directory: instance a
// links into instance b.
func writeFleet(t *testing.T) (fleetPath, dir string) {
	t.Helper()
	dir = t.TempDir()

	files := map[string]string{
		"a/st.cmd":    "epicsEnvSet(\"P\", \"RING:A\")\ndbLoadRecords(\"motors.db\")\n",
		"a/motors.db": "record(ai, \"$(P):POS\") {\n  field(INP, \"RING:B:SET CA\")\n}\n",
		"b/st.cmd":    "dbLoadRecords(\"setp.db\", \"P=RING:B\")\n",
		"b/setp.db":   "record(ao, \"$(P):SET\") {\n}\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	fleetPath = filepath.Join(dir, "fleet.yaml")
	config := "name: ring\ninstances:\n" +
		"  - id: a\n    script: st.cmd\n    workdir: " + filepath.Join(dir, "a") + "\n" +
		"  - id: b\n    script: st.cmd\n    workdir: " + filepath.Join(dir, "b") + "\n"
	require.NoError(t, os.WriteFile(fleetPath, []byte(config), 0o644))
	return fleetPath, dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLoadCommand(t *testing.T) {
	fleetPath, _ := writeFleet(t)

	out, err := execute(t, "load", fleetPath)
	require.NoError(t, err)
	assert.Contains(t, out, "a: 1 record(s)")
	assert.Contains(t, out, "b: 1 record(s)")
	assert.Contains(t, out, "2 record(s), 0 unresolved link(s)")
}

func TestLoadCommandJSON(t *testing.T) {
	fleetPath, _ := writeFleet(t)

	out, err := execute(t, "--format", "json", "load", fleetPath)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestLoadCommandSavesSnapshot(t *testing.T) {
	fleetPath, dir := writeFleet(t)
	dbPath := filepath.Join(dir, "scope.db")

	out, err := execute(t, "load", fleetPath, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "snapshot saved")

	out, err = execute(t, "snapshot", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "2 record(s)")
}

func TestLoadCommandSingleScript(t *testing.T) {
	_, dir := writeFleet(t)

	out, err := execute(t, "load", filepath.Join(dir, "b", "st.cmd"))
	require.NoError(t, err)
	assert.Contains(t, out, "st: 1 record(s)")
}

func TestQueryCommandFromFleet(t *testing.T) {
	fleetPath, _ := writeFleet(t)

	out, err := execute(t, "query", "--fleet", fleetPath, "RING:A:POS", "--fields")
	require.NoError(t, err)
	assert.Contains(t, out, "a/RING:A:POS (ai)")
	// Provenance points at the load command, not the database file.
	assert.Contains(t, out, "st.cmd:2")
	assert.Contains(t, out, "P=RING:A")
	assert.Contains(t, out, "-> RING:B:SET.VAL")
}

func TestQueryCommandFromSnapshot(t *testing.T) {
	fleetPath, dir := writeFleet(t)
	dbPath := filepath.Join(dir, "scope.db")

	_, err := execute(t, "load", fleetPath, "--db", dbPath)
	require.NoError(t, err)

	out, err := execute(t, "query", "--db", dbPath, "--kind", "prefix", "RING:")
	require.NoError(t, err)
	assert.Contains(t, out, "a/RING:A:POS")
	assert.Contains(t, out, "b/RING:B:SET")
}

func TestQueryCommandNoMatch(t *testing.T) {
	fleetPath, _ := writeFleet(t)

	_, err := execute(t, "query", "--fleet", fleetPath, "NOPE")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestQueryCommandBadKind(t *testing.T) {
	_, err := execute(t, "query", "--kind", "fuzzy", "--fleet", "x.yaml", "A")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLinksCommand(t *testing.T) {
	fleetPath, _ := writeFleet(t)

	out, err := execute(t, "links", "--fleet", fleetPath, "a/RING:A:POS")
	require.NoError(t, err)
	assert.Contains(t, out, "b/RING:B:SET (via INP)")
}

func TestLinksCommandInbound(t *testing.T) {
	fleetPath, _ := writeFleet(t)

	out, err := execute(t, "links", "--fleet", fleetPath, "--direction", "in", "b/RING:B:SET")
	require.NoError(t, err)
	assert.Contains(t, out, "a/RING:A:POS (via INP)")
}

func TestValidateCommand(t *testing.T) {
	fleetPath, _ := writeFleet(t)

	out, err := execute(t, "validate", fleetPath)
	require.NoError(t, err)
	assert.Contains(t, out, "valid: 2 instance(s)")
}

func TestValidateCommandRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fleet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("instances:\n  - script: st.cmd\n"), 0o644))

	_, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
