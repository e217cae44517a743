package store

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	apperrors "position-engine/internal/errors"
	"position-engine/internal/trading"
)

// WriteResult writes the run table to path, creating parent directories.
// The file is written to a temporary name and renamed so a failed run
// never leaves partial output behind.
func WriteResult(path string, result *trading.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrapf(err, "creating output directory for %s", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".posengine-*.csv")
	if err != nil {
		return apperrors.Wrap(err, "creating temporary output")
	}
	defer os.Remove(tmp.Name())

	if err := EncodeResult(tmp, result); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(err, "closing temporary output")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// EncodeResult writes the run table as CSV to w.
func EncodeResult(w io.Writer, result *trading.Result) error {
	header, rows := result.Table()

	out := gocsv.DefaultCSVWriter(w)
	if err := out.Write(header); err != nil {
		return apperrors.Wrap(err, "writing header")
	}
	for _, row := range rows {
		if err := out.Write(row); err != nil {
			return apperrors.Wrap(err, "writing row")
		}
	}
	out.Flush()
	return out.Error()
}
