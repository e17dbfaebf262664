package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"mana-ca/internal/archive"
	"mana-ca/internal/config"
	"mana-ca/internal/sims/dandelifeon"
)

var smallSearch = []string{
	"-population", "6", "-elite", "1", "-selected", "2",
	"-elite-recruits", "3", "-selected-recruits", "2",
	"-generations", "3", "-seed", "11", "-workers", "2",
}

func TestSearchWritesReportAndArtifacts(t *testing.T) {
	dir := t.TempDir()
	args := append([]string{
		"-reference", "-history",
		"-png", filepath.Join(dir, "best.png"),
		"-gif", filepath.Join(dir, "best.gif"),
		"-chart", filepath.Join(dir, "chart.png"),
		"-archive", filepath.Join(dir, "runs.db"),
	}, smallSearch...)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), args, &stdout, &stderr), stderr.String())

	doc := gjson.ParseBytes(stdout.Bytes())
	assert.Equal(t, "11", doc.Get("seed").String())
	assert.EqualValues(t, 3, doc.Get("generations").Int())
	assert.GreaterOrEqual(t, doc.Get("outcome.mana").Int(), int64(36000))
	assert.Len(t, doc.Get("history").Array(), 3)
	assert.Contains(t, stderr.String(), "search finished")

	for _, name := range []string{"best.png", "chart.png"} {
		f, err := os.Open(filepath.Join(dir, name))
		require.NoError(t, err)
		_, err = png.DecodeConfig(f)
		f.Close()
		assert.NoError(t, err, name)
	}
	assert.FileExists(t, filepath.Join(dir, "best.gif"))

	store, err := archive.Open(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	defer store.Close()
	best, err := store.Best(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(11), best.Seed)
}

func TestFlagsOverrideSettingsFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"optimizer": {"seed": 99, "max_generations": 50}}`), 0o644))

	args := append([]string{"-config", cfgPath}, smallSearch...)
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), args, &stdout, &stderr), stderr.String())
	doc := gjson.ParseBytes(stdout.Bytes())
	assert.Equal(t, "11", doc.Get("seed").String())
	assert.EqualValues(t, 3, doc.Get("generations").Int())
}

func TestEvaluateBoard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.json")
	data, err := json.Marshal(config.EncodeBoard(dandelifeon.ReferenceLayout()))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out := filepath.Join(dir, "report.json")
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-evaluate", path, "-out", out}, &stdout, &stderr))
	assert.Zero(t, stdout.Len())

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.EqualValues(t, 36000, gjson.GetBytes(written, "outcome.mana").Int())
	assert.EqualValues(t, 6, gjson.GetBytes(written, "outcome.cost").Int())
}

func TestFromArchiveNeedsArchive(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), append([]string{"-from-archive"}, smallSearch...), &stdout, &stderr)
	assert.ErrorContains(t, err, "-archive")
}

func TestBadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Error(t, run(context.Background(), []string{"-population", "x"}, &stdout, &stderr))
}

func TestWarmStartMustMatchTerrain(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"board": {"blocked": [[2, 2]]}}`), 0o644))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), append([]string{"-config", cfgPath, "-reference"}, smallSearch...), &stdout, &stderr)
	assert.ErrorContains(t, err, "warm_start")
	assert.Zero(t, stdout.Len())
}

func TestMistypedSettingsAreRejected(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"optimizer": {"population": "lots"}}`), 0o644))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", cfgPath}, &stdout, &stderr)
	assert.ErrorIs(t, err, config.ErrInvalidSettings)
}
