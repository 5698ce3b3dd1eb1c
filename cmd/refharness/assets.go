package main

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/bindptr/errors"
)

// copyAssets copies the regular files at the top level of src into dst
// and returns their names. Subdirectories are not descended into.
func copyAssets(log *zap.Logger, src, dst string) ([]string, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHarness, errors.KindIO, err, "list assets")
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, errors.Wrap(errors.PhaseHarness, errors.KindIO, err, "create data directory")
	}

	log.Info("copying asset files", zap.String("from", src), zap.String("to", dst))

	var copied []string
	var errs error
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		log.Debug("asset file", zap.String("name", e.Name()))
		if err := copyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		copied = append(copied, e.Name())
	}

	log.Info("copying of asset files completed", zap.Int("files", len(copied)))
	return copied, errs
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(errors.PhaseHarness, errors.KindIO, err, "open "+src)
	}
	defer func() {
		err = multierr.Append(err, in.Close())
	}()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(errors.PhaseHarness, errors.KindIO, err, "create "+dst)
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrap(errors.PhaseHarness, errors.KindIO, err, "copy "+src)
	}
	return nil
}
