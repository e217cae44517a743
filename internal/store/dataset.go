package store

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"position-engine/internal/config"
	apperrors "position-engine/internal/errors"
	"position-engine/internal/models"
	"position-engine/pkg/utils"
)

// Loader reads daily and weekly datasets from CSV files.
type Loader struct {
	cols   config.ColumnConfig
	logger zerolog.Logger
}

// NewLoader creates a loader that maps input headers with cols.
func NewLoader(cols config.ColumnConfig, logger zerolog.Logger) *Loader {
	return &Loader{cols: cols, logger: logger.With().Str("component", "loader").Logger()}
}

// field binds an indicator key to the header it is read from. A required
// field has no computed fallback and must be present in the header.
type field struct {
	key      string
	header   string
	required bool
}

// LoadDaily reads a daily dataset.
func (l *Loader) LoadDaily(path string) (*models.Series, error) {
	f, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.ReadDaily(filepath.Base(path), f)
}

// LoadWeekly reads a weekly dataset.
func (l *Loader) LoadWeekly(path string) (*models.Series, error) {
	f, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.ReadWeekly(filepath.Base(path), f)
}

// ReadDaily parses a daily dataset from r. Every column a strategy reads is
// required except BBI, which is computed from the close when absent.
func (l *Loader) ReadDaily(name string, r io.Reader) (*models.Series, error) {
	return l.read(name, r, []string{l.cols.Close}, []field{
		{models.IndicatorBBI, l.cols.BBI, false},
		{models.IndicatorPCRPercentile, l.cols.PCRPercentile, true},
		{models.IndicatorPCR, l.cols.PCR, true},
		{models.IndicatorAccumulation, l.cols.Accumulation, true},
		{models.IndicatorAmplitude, l.cols.Amplitude, true},
		{models.IndicatorChange, l.cols.Change, true},
	})
}

// ReadWeekly parses a weekly dataset from r. The weekly close and BBI
// headers fall back to the daily ones when absent.
func (l *Loader) ReadWeekly(name string, r io.Reader) (*models.Series, error) {
	return l.read(name, r, []string{l.cols.WeeklyClose, l.cols.Close}, []field{
		{models.IndicatorBBI, l.cols.WeeklyBBI, false},
		{models.IndicatorBBI, l.cols.BBI, false},
		{models.IndicatorMACD, l.cols.MACD, false},
	})
}

func openCSV(path string) (*os.File, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
	case ".xlsx", ".xls":
		return nil, apperrors.NewDataError(path, 0, "", "spreadsheet input is not supported, export to CSV", apperrors.ErrUnsupportedFile)
	default:
		return nil, apperrors.NewDataError(path, 0, "", fmt.Sprintf("unknown extension %q", ext), apperrors.ErrUnsupportedFile)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewDataError(path, 0, "", "file not found", apperrors.ErrDataNotFound)
		}
		return nil, apperrors.Wrapf(err, "opening %s", path)
	}
	return f, nil
}

type parsedRow struct {
	row models.TradingRow
	raw map[string]string
	// line is the 1-based line in the source file.
	line int
}

func (l *Loader) read(name string, r io.Reader, closeHeaders []string, fields []field) (*models.Series, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.Wrapf(err, "reading %s", name)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	header, err := gocsv.DefaultCSVReader(bytes.NewReader(data)).Read()
	if err == io.EOF {
		return nil, apperrors.NewDataError(name, 0, "", "file is empty", apperrors.ErrDataNotFound)
	}
	if err != nil {
		return nil, apperrors.NewDataError(name, 1, "", "unreadable header", err)
	}

	records, err := gocsv.CSVToMaps(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDataError(name, 0, "", "malformed CSV", err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewDataError(name, 0, "", "no data rows", apperrors.ErrDataNotFound)
	}

	dateCol, ok := findHeader(header, l.cols.Date)
	if !ok {
		return nil, apperrors.NewDataError(name, 0, l.cols.Date, "date column not found", apperrors.ErrMissingColumn)
	}
	var closeCol string
	for _, h := range closeHeaders {
		if closeCol, ok = findHeader(header, h); ok {
			break
		}
	}
	if !ok {
		return nil, apperrors.NewDataError(name, 0, closeHeaders[0], "close column not found", apperrors.ErrMissingColumn)
	}

	bound := make([]field, 0, len(fields))
	seen := make(map[string]bool)
	var missing []string
	for _, f := range fields {
		if seen[f.key] {
			continue
		}
		if col, ok := findHeader(header, f.header); ok {
			bound = append(bound, field{key: f.key, header: col})
			seen[f.key] = true
		} else if f.required {
			missing = append(missing, f.header)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewDataError(name, 0, strings.Join(missing, ","),
			"required columns not found", apperrors.ErrMissingColumn)
	}

	rows := make([]parsedRow, 0, len(records))
	for i, rec := range records {
		line := i + 2
		date, err := l.parseDate(rec[dateCol])
		if err != nil {
			return nil, apperrors.NewDataError(name, line, dateCol, fmt.Sprintf("unparseable date %q", rec[dateCol]), apperrors.ErrInputValidation)
		}
		price, _ := utils.ParseNumber(rec[closeCol])

		indicators := make(map[string]float64, len(bound))
		for _, f := range bound {
			indicators[f.key], _ = utils.ParseNumber(rec[f.header])
		}
		rows = append(rows, parsedRow{
			row:  models.TradingRow{Date: date, Close: price, Indicators: indicators},
			raw:  rec,
			line: line,
		})
	}

	sorted := sort.SliceIsSorted(rows, func(a, b int) bool { return rows[a].row.Date.Before(rows[b].row.Date) })
	if !sorted {
		sort.SliceStable(rows, func(a, b int) bool { return rows[a].row.Date.Before(rows[b].row.Date) })
		l.logger.Info().Str("source", name).Msg("Input rows were not in date order, sorted ascending")
	}

	series := &models.Series{
		Name:    name,
		Rows:    make([]models.TradingRow, len(rows)),
		Columns: header,
		Raw:     make([]map[string]string, len(rows)),
	}
	for i, pr := range rows {
		if i > 0 && models.SameDay(pr.row.Date, rows[i-1].row.Date) {
			return nil, apperrors.NewDataError(name, pr.line, dateCol,
				fmt.Sprintf("duplicate date %s", pr.row.Date.Format("2006-01-02")), apperrors.ErrInputValidation)
		}
		series.Rows[i] = pr.row
		series.Raw[i] = pr.raw
	}

	l.logger.Debug().
		Str("source", name).
		Int("rows", series.Len()).
		Int("indicators", len(bound)).
		Msg("Dataset loaded")

	return series, nil
}

func (l *Loader) parseDate(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	var lastErr error
	for _, layout := range l.cols.DateFormats {
		t, err := time.Parse(layout, cell)
		if err == nil {
			return models.Day(t), nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no date formats configured")
	}
	return time.Time{}, lastErr
}

// findHeader matches a configured header against the file header,
// ignoring case and surrounding spaces.
func findHeader(header []string, want string) (string, bool) {
	want = strings.TrimSpace(want)
	if want == "" {
		return "", false
	}
	for _, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return h, true
		}
	}
	return "", false
}
