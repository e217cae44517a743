package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"position-engine/internal/config"
	apperrors "position-engine/internal/errors"
	"position-engine/internal/store"
	"position-engine/internal/strategy"
)

// bandCSV is ten weekdays with one three-row sell band and a cross-under
// inside it.
const bandCSV = `date,close,bbi,pcr_percentile,pcr,accumulation,amplitude_pct,change_pct
2024-04-01,101,100,0.5,1.2,50,1,0
2024-04-02,101,100,0.95,1.2,50,1,0
2024-04-03,99,100,0.95,1.2,50,1,0
2024-04-04,99,100,0.95,1.2,50,1,0
2024-04-05,99,100,0.5,1.2,50,1,0
2024-04-08,99,100,0.5,1.2,50,1,0
2024-04-09,99,100,0.5,1.2,50,1,0
2024-04-10,99,100,0.5,1.2,50,1,0
2024-04-11,99,100,0.5,1.2,50,1,0
2024-04-12,99,100,0.5,1.2,50,1,0
`

func testEnv(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Logging.File = false
	cfg.Store.Path = filepath.Join(dir, "runs.db")

	daily := filepath.Join(dir, "daily.csv")
	require.NoError(t, os.WriteFile(daily, []byte(bandCSV), 0o644))
	return cfg, dir
}

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(cfg, filepath.Dir(cfg.Store.Path), zerolog.Nop())
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRunCommand_JSON(t *testing.T) {
	cfg, dir := testEnv(t)

	out, err := execute(t, cfg, "run", "--daily", filepath.Join(dir, "daily.csv"), "--no-store", "--json")
	require.NoError(t, err)

	var report runReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 10, report.Rows)
	assert.Equal(t, filepath.Join(dir, "daily_positions.csv"), report.Output)
	require.Len(t, report.Summaries, 4)
	assert.Equal(t, strategy.NamePCRBBI, report.Summaries[0].Strategy)
	assert.InDelta(t, 0.6, report.Summaries[0].Final, 1e-9)
	assert.Equal(t, 1, report.Summaries[0].Applied)

	data, err := os.ReadFile(report.Output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 11)
	assert.True(t, strings.HasSuffix(lines[0], ",combined_total"))

	// --no-store leaves no history behind.
	_, err = os.Stat(cfg.Store.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestRunCommand_Text(t *testing.T) {
	cfg, dir := testEnv(t)
	outPath := filepath.Join(dir, "out", "positions.csv")

	out, err := execute(t, cfg, "run", "--daily", filepath.Join(dir, "daily.csv"), "--out", outPath, "--no-store", "--tail", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "pcr_bbi")
	assert.Contains(t, out, "2024-04-12")
	assert.NotContains(t, out, "2024-04-09")
	assert.Contains(t, out, "SELL executed")
	assert.Contains(t, out, "Wrote "+outPath)
}

func TestRunCommand_InitialOverride(t *testing.T) {
	cfg, dir := testEnv(t)

	_, err := execute(t, cfg, "run", "--daily", filepath.Join(dir, "daily.csv"), "--no-store", "--initial", "1.5")
	assert.True(t, apperrors.Is(err, apperrors.ErrConfigInvalid))
	_, statErr := os.Stat(filepath.Join(dir, "daily_positions.csv"))
	assert.True(t, os.IsNotExist(statErr), "no output is written on a config error")

	out, err := execute(t, cfg, "run", "--daily", filepath.Join(dir, "daily.csv"), "--no-store", "--json", "--initial", "0.3")
	require.NoError(t, err)
	var report runReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.InDelta(t, 0.3, report.Summaries[0].Initial, 1e-9)
	assert.InDelta(t, 0.2, report.Summaries[0].Final, 1e-9)
}

func TestRunCommand_MissingFile(t *testing.T) {
	cfg, dir := testEnv(t)

	_, err := execute(t, cfg, "run", "--daily", filepath.Join(dir, "nope.csv"))
	assert.True(t, apperrors.Is(err, apperrors.ErrDataNotFound))

	_, err = execute(t, cfg, "run")
	assert.Error(t, err, "--daily is required")
}

func TestRunCommand_MissingColumn(t *testing.T) {
	cfg, dir := testEnv(t)
	daily := filepath.Join(dir, "typo.csv")
	require.NoError(t, os.WriteFile(daily, []byte("date,close,bbi,pcr_percentle,pcr,accumulation,amplitude_pct,change_pct\n2024-04-01,101,100,0.5,1.2,50,1,0\n"), 0o644))

	_, err := execute(t, cfg, "run", "--daily", daily, "--no-store")
	assert.True(t, apperrors.Is(err, apperrors.ErrMissingColumn), "got %v", err)
	_, statErr := os.Stat(filepath.Join(dir, "typo_positions.csv"))
	assert.True(t, os.IsNotExist(statErr), "no output is written on a missing column")
}

func TestRunCommand_InitialDefaultFollowsConfig(t *testing.T) {
	cfg, _ := testEnv(t)
	cfg.PCRBBI.InitialPosition = 0.4

	root := NewRootCmd(cfg, filepath.Dir(cfg.Store.Path), zerolog.Nop())
	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	flag := run.Flags().Lookup("initial")
	require.NotNil(t, flag)
	assert.Equal(t, "0.4", flag.DefValue)
}

func TestHistoryCommand(t *testing.T) {
	cfg, dir := testEnv(t)

	_, err := execute(t, cfg, "run", "--daily", filepath.Join(dir, "daily.csv"), "--json")
	require.NoError(t, err)

	out, err := execute(t, cfg, "history", "--json")
	require.NoError(t, err)
	var runs []store.RunRecord
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, 10, runs[0].Rows)
	assert.Len(t, runs[0].Summaries, 4)

	out, err = execute(t, cfg, "history", "show", runs[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, runs[0].ID)
	assert.Contains(t, out, "APPLIED")

	_, err = execute(t, cfg, "history", "show", "missing")
	assert.True(t, apperrors.Is(err, apperrors.ErrDataNotFound))
}

func TestConfigCommands(t *testing.T) {
	cfg, dir := testEnv(t)

	out, err := execute(t, cfg, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), strings.TrimSpace(out))

	out, err = execute(t, cfg, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	out, err = execute(t, cfg, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "combined_total = accumulation_total + amplitude_total + weekly_total")

	cfg.PCRBBI.SellMinRun = 0
	_, err = execute(t, cfg, "config", "validate")
	assert.True(t, apperrors.Is(err, apperrors.ErrConfigInvalid))
}

func TestExamplesCommand(t *testing.T) {
	cfg, _ := testEnv(t)

	out, err := execute(t, cfg, "examples")
	require.NoError(t, err)
	assert.Contains(t, out, "posengine run --daily daily.csv")
	assert.Contains(t, out, "Review Past Runs")
}
