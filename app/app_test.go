package app

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--config", "../etc/", "--env-file", filepath.Join(t.TempDir(), "none.env")))
	t.Cleanup(func() { dumpJSON = false })

	err := rootCmd.Execute()

	return out.String(), err
}

func TestConfigDump(t *testing.T) {
	out, err := run(t, "config", "dump")
	require.NoError(t, err)
	assert.Contains(t, out, "[Webserver]")

	out, err = run(t, "config", "dump", "--json")
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Dhenu Mahima API", doc["Title"])
}

func TestJobsRunRequiresName(t *testing.T) {
	_, err := run(t, "jobs", "run")
	require.Error(t, err)
}
