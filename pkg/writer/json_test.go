package writer

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleResult struct {
	JobUUID    string `json:"job_uuid"`
	NormalForm string `json:"normal_form"`
	Gas        uint64 `json:"gas"`
}

var sample = sampleResult{
	JobUUID:    "7c9e6679-7425-40de-944b-e07fc1f90ae7",
	NormalForm: "λx1: λx2: x1",
	Gas:        12,
}

func TestWriteCompactAndPretty(t *testing.T) {
	var compact, pretty bytes.Buffer

	require.NoError(t, NewJSONWriter[sampleResult]().Write(sample, &compact))
	require.NoError(t, NewPrettyJSONWriter[sampleResult]().Write(sample, &pretty))

	assert.NotContains(t, compact.String(), "\n  ")
	assert.Contains(t, pretty.String(), "\n  \"normal_form\"")
	assert.Contains(t, compact.String(), sample.NormalForm)
}

func TestWriteToFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")

	require.NoError(t, NewJSONWriter[sampleResult]().WriteToFile(sample, path))

	got, err := ReadFromFile[sampleResult](path)
	require.NoError(t, err)
	assert.Equal(t, sample, got)
}

func TestWriteToFileGzipRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json.gz")

	require.NoError(t, NewJSONWriter[sampleResult]().WriteToFile(sample, path))

	// The file really is gzip on disk.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), 2)
	assert.Equal(t, byte(0x1f), raw[0])
	assert.Equal(t, byte(0x8b), raw[1])

	gz, err := gzip.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer gz.Close()

	got, err := ReadFromFile[sampleResult](path)
	require.NoError(t, err)
	assert.Equal(t, sample, got)
}

func TestWriteToFileFailsOnBadPath(t *testing.T) {
	err := NewJSONWriter[sampleResult]().WriteToFile(sample, filepath.Join(t.TempDir(), "missing", "out.json"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "create"))
}

func TestReadFromFileFailsOnMissing(t *testing.T) {
	_, err := ReadFromFile[sampleResult](filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
