package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nizalia829/roller-coaster-builder/internal/config"
	"github.com/nizalia829/roller-coaster-builder/internal/storage/memory"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

const straightTrack = `{
	"points": [
		{ "position": [0, 0, 0] },
		{ "position": [0, 0, 10] }
	]
}`

const dropTrack = `{
	"points": [
		{ "position": [0, 8, 0] },
		{ "position": [0, 0, 20] }
	]
}`

const ovalTrack = `{
	"closed": true,
	"speedMultiplier": 2,
	"points": [
		{ "position": [0, 0, 0] },
		{ "position": [0, 0, 20], "tilt": 10 },
		{ "position": [20, 0, 20], "loop": { "radius": 6, "pitch": 3, "lateral": 1 } },
		{ "position": [20, 0, 0] }
	]
}`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

// setup loads defaults into a clean viper and points every output at dir.
func setup(t *testing.T, storageType string) string {
	t.Helper()
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	config.SetDefaults()
	viper.Set("logsDir", dir)
	viper.Set("storage.type", storageType)
	viper.Set("storage.memory.outputDir", filepath.Join(dir, "rides"))
	viper.Set("storage.sqlite.path", filepath.Join(dir, "rides.db"))
	return dir
}

func newTestRuntime(t *testing.T, command string) *runtime {
	t.Helper()
	rt, err := newRuntime(command)
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt
}

func TestLoadTrackFile(t *testing.T) {
	dir := t.TempDir()

	tf, err := LoadTrackFile(writeFile(t, dir, "oval.json", ovalTrack))
	require.NoError(t, err)
	assert.True(t, tf.Closed)
	require.NotNil(t, tf.SpeedMultiplier)
	assert.Equal(t, 2.0, *tf.SpeedMultiplier)
	assert.Nil(t, tf.ChainLift)
	require.Len(t, tf.Points, 4)
	assert.Equal(t, &core.LoopSpec{Radius: 6, Pitch: 3, Lateral: 1}, tf.Points[2].Loop)

	_, err = LoadTrackFile(writeFile(t, dir, "unknown.json", `{"points": [], "colour": "red"}`))
	assert.Error(t, err)

	_, err = LoadTrackFile(writeFile(t, dir, "short.json", `{"points": [{"position": [0,0,0]}]}`))
	assert.ErrorContains(t, err, "at least 2 points")

	_, err = LoadTrackFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestReplay_BuildsTrack(t *testing.T) {
	dir := setup(t, "none")
	rt := newTestRuntime(t, "preview")
	e, err := rt.attach(false)
	require.NoError(t, err)

	tf, err := LoadTrackFile(writeFile(t, dir, "oval.json", ovalTrack))
	require.NoError(t, err)
	require.NoError(t, tf.Replay(rt.dispatcher))

	pts := e.Points()
	require.Len(t, pts, 4)
	assert.Equal(t, 10.0, pts[1].Tilt)
	require.NotNil(t, pts[2].Loop)
	assert.Equal(t, 6.0, pts[2].Loop.Radius)
	assert.True(t, e.Track().Closed())
}

func TestRunSimulate_MemoryExport(t *testing.T) {
	dir := setup(t, "memory")
	rt := newTestRuntime(t, "simulate")

	sum, err := runSimulate(rt, simulateOptions{
		track:    writeFile(t, dir, "straight.json", straightTrack),
		dt:       1.0 / 60,
		duration: 60,
	})
	require.NoError(t, err)

	// 10 m at the 2 m/s floor
	assert.Equal(t, core.RideIdle, sum.EndState)
	assert.InDelta(t, 5.0, sum.Duration, 0.1)
	assert.InDelta(t, 2.0, sum.TopSpeed, 1e-9)
	require.NotEmpty(t, sum.ExportPath)
	assert.True(t, strings.HasSuffix(sum.ExportPath, ".json.gz"))

	export, err := memory.ReadExport(sum.ExportPath)
	require.NoError(t, err)
	assert.Equal(t, sum.SessionID, export.ID)
	assert.Equal(t, sum.Ticks, export.Ticks)
	assert.Len(t, export.Samples, int(sum.Ticks))
}

func TestRunSimulate_DurationLimitStopsRide(t *testing.T) {
	dir := setup(t, "none")
	rt := newTestRuntime(t, "simulate")

	sum, err := runSimulate(rt, simulateOptions{
		track:    writeFile(t, dir, "oval.json", ovalTrack),
		dt:       0.1,
		duration: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, core.RideIdle, sum.EndState)
	assert.InDelta(t, 1.0, sum.Duration, 0.15)
	assert.Empty(t, sum.ExportPath)
	// the file's multiplier applies: twice the 2 m/s floor
	assert.GreaterOrEqual(t, sum.TopSpeed, 4.0)
}

func TestRunSimulate_SpeedOverride(t *testing.T) {
	dir := setup(t, "none")
	rt := newTestRuntime(t, "simulate")

	speed := 1.0
	sum, err := runSimulate(rt, simulateOptions{
		track:    writeFile(t, dir, "straight.json", straightTrack),
		dt:       1.0 / 60,
		duration: 0.5,
		speed:    &speed,
	})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, sum.TopSpeed, 1e-9)
}

func TestRunSimulate_ReportsEnergyHeight(t *testing.T) {
	dir := setup(t, "none")
	rt := newTestRuntime(t, "simulate")

	sum, err := runSimulate(rt, simulateOptions{
		track:    writeFile(t, dir, "drop.json", dropTrack),
		dt:       1.0 / 60,
		duration: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, core.RideIdle, sum.EndState)
	assert.InDelta(t, 8.0, sum.MaxHeight, 1e-9)
	// sqrt(2 * 9.81 * 8) at the bottom
	assert.InDelta(t, 12.5, sum.TopSpeed, 0.5)

	var out bytes.Buffer
	printSummary(&out, sum)
	assert.Contains(t, out.String(), "peak:      8.00 m")
}

func TestRunSimulate_SQLite(t *testing.T) {
	dir := setup(t, "sqlite")
	rt := newTestRuntime(t, "simulate")

	sum, err := runSimulate(rt, simulateOptions{
		track:    writeFile(t, dir, "straight.json", straightTrack),
		dt:       0.5,
		duration: 60,
	})
	require.NoError(t, err)
	assert.Empty(t, sum.ExportPath)
	assert.FileExists(t, filepath.Join(dir, "rides.db"))
	// one sample per tick, read back before the database closes
	assert.Equal(t, 1, sum.StoredSessions)
	assert.Equal(t, int(sum.Ticks), sum.StoredSamples)

	var out bytes.Buffer
	printSummary(&out, sum)
	assert.Contains(t, out.String(), fmt.Sprintf("stored:    %d samples, 1 sessions in database", sum.Ticks))
}

func TestRunSimulate_NoReadBackWithoutDatabase(t *testing.T) {
	dir := setup(t, "none")
	rt := newTestRuntime(t, "simulate")

	sum, err := runSimulate(rt, simulateOptions{
		track:    writeFile(t, dir, "straight.json", straightTrack),
		dt:       0.5,
		duration: 60,
	})
	require.NoError(t, err)
	assert.Zero(t, sum.StoredSessions)

	var out bytes.Buffer
	printSummary(&out, sum)
	assert.NotContains(t, out.String(), "stored:")
}

func TestRunSimulate_InvalidOptions(t *testing.T) {
	dir := setup(t, "none")
	rt := newTestRuntime(t, "simulate")
	track := writeFile(t, dir, "straight.json", straightTrack)

	_, err := runSimulate(rt, simulateOptions{track: track, dt: 0, duration: 1})
	assert.ErrorContains(t, err, "dt must be positive")
	_, err = runSimulate(rt, simulateOptions{track: track, dt: 0.1, duration: -1})
	assert.ErrorContains(t, err, "duration must be positive")
	_, err = runSimulate(rt, simulateOptions{track: filepath.Join(dir, "nope.json"), dt: 0.1, duration: 1})
	assert.Error(t, err)
}

func TestRunSimulate_UnknownStorage(t *testing.T) {
	dir := setup(t, "cassette")
	rt := newTestRuntime(t, "simulate")

	_, err := runSimulate(rt, simulateOptions{
		track:    writeFile(t, dir, "straight.json", straightTrack),
		dt:       0.1,
		duration: 1,
	})
	assert.ErrorContains(t, err, "unknown storage type")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(viper.Reset)
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPreviewCommand_WKT(t *testing.T) {
	dir := t.TempDir()
	track := writeFile(t, dir, "straight.json", straightTrack)
	out := filepath.Join(dir, "rail.wkt")

	_, err := execute(t, "preview",
		"--config-dir", dir, "--logs-dir", dir,
		"--track", track, "--out", out, "--samples", "5")
	require.NoError(t, err)

	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "LINESTRING Z"), string(body))
}

func TestPreviewCommand_GeoJSONStdout(t *testing.T) {
	dir := t.TempDir()
	track := writeFile(t, dir, "oval.json", ovalTrack)

	stdout, err := execute(t, "preview",
		"--config-dir", dir, "--logs-dir", dir,
		"--track", track, "--lon", "13.4", "--lat", "52.5")
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.NotEmpty(t, fc.Features)
	assert.Contains(t, fc.Features[0].Properties, "kind")
}

// lastNorthing returns the Y of the final centreline coordinate.
func lastNorthing(t *testing.T, body string) float64 {
	t.Helper()
	var fc struct {
		Features []struct {
			Geometry struct {
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &fc))
	require.NotEmpty(t, fc.Features)
	coords := fc.Features[0].Geometry.Coordinates
	require.NotEmpty(t, coords)
	return coords[len(coords)-1][1]
}

func TestPreviewCommand_AnchorAtNullIsland(t *testing.T) {
	dir := t.TempDir()
	track := writeFile(t, dir, "straight.json", straightTrack)

	local, err := execute(t, "preview",
		"--config-dir", dir, "--logs-dir", dir, "--track", track)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, lastNorthing(t, local), 1e-6)

	anchored, err := execute(t, "preview",
		"--config-dir", dir, "--logs-dir", dir, "--track", track,
		"--lon", "0", "--lat", "0")
	require.NoError(t, err)
	// 10 m north of 0,0 in degrees
	assert.InDelta(t, 10.0/111_320, lastNorthing(t, anchored), 1e-6)
}

func TestPreviewCommand_AnchorFromConfig(t *testing.T) {
	dir := t.TempDir()
	track := writeFile(t, dir, "straight.json", straightTrack)
	writeFile(t, dir, config.FileName, `{ "geo": { "anchored": true } }`)

	stdout, err := execute(t, "preview",
		"--config-dir", dir, "--logs-dir", dir, "--track", track)
	require.NoError(t, err)
	assert.Less(t, lastNorthing(t, stdout), 0.001)
}

func TestSimulateCommand(t *testing.T) {
	dir := t.TempDir()
	track := writeFile(t, dir, "straight.json", straightTrack)
	t.Setenv("COASTER_STORAGE_MEMORY_OUTPUTDIR", filepath.Join(dir, "rides"))

	stdout, err := execute(t, "simulate",
		"--config-dir", dir, "--logs-dir", dir,
		"--track", track, "--speed", "3", "--dt", "0.05")
	require.NoError(t, err)
	assert.Contains(t, stdout, "end state: idle")
	assert.Contains(t, stdout, "top speed: 6.00 m/s")
	assert.Contains(t, stdout, "peak:      0.00 m")
	assert.Contains(t, stdout, "export:    "+filepath.Join(dir, "rides"))
}

func TestSimulateCommand_RequiresTrack(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "simulate", "--config-dir", dir, "--logs-dir", dir)
	assert.ErrorContains(t, err, "track")
}

func TestBindFlags_FlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, config.FileName, `{ "storage": { "type": "sqlite" }, "logLevel": "warn" }`)

	_, err := execute(t, "preview",
		"--config-dir", dir, "--logs-dir", dir, "--storage", "none",
		"--track", writeFile(t, dir, "straight.json", straightTrack),
		"--out", filepath.Join(dir, "rail.json"))
	require.NoError(t, err)

	assert.Equal(t, "none", viper.GetString("storage.type"))
	// not given on the command line: the file wins over the flag default
	assert.Equal(t, "warn", viper.GetString("logLevel"))
}
