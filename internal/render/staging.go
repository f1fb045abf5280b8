package render

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// beginStaging creates an empty sibling staging directory for the build output.
func (r *Renderer) beginStaging() (string, error) {
	stage := r.cfg.Directory + ".staging"
	if err := os.RemoveAll(stage); err != nil {
		return "", fmt.Errorf("clear stale staging directory: %w", err)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return "", err
	}
	r.logger.Debug("Initialized staging directory", slog.String("staging", stage), logfields.Output(r.cfg.Directory))
	return stage, nil
}

// promote swaps the staging directory in place of the output directory:
//  1. Move the existing output (if any) to <output>.prev, replacing an older backup.
//  2. Rename staging to output. On failure the backup is moved back.
//  3. Remove the backup.
func (r *Renderer) promote(stage string) error {
	if _, err := os.Stat(stage); err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}

	out := r.cfg.Directory
	prev := out + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("remove previous backup: %w", err)
	}

	hadOutput := false
	if _, err := os.Stat(out); err == nil {
		if err := os.Rename(out, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
		hadOutput = true
	}
	if err := os.Rename(stage, out); err != nil {
		if hadOutput {
			if rerr := os.Rename(prev, out); rerr != nil {
				r.logger.Error("Failed to restore previous output", logfields.Path(prev), logfields.Error(rerr))
			}
		}
		return fmt.Errorf("promote staging: %w", err)
	}

	if err := os.RemoveAll(prev); err != nil {
		r.logger.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	r.logger.Info("Promoted staging directory", logfields.Output(out))
	return nil
}

// abortStaging removes the staging directory after a failed render.
func (r *Renderer) abortStaging(stage string) {
	if err := os.RemoveAll(stage); err != nil {
		r.logger.Warn("Failed to remove staging directory after abort", slog.String("staging", stage), logfields.Error(err))
		return
	}
	r.logger.Debug("Removed staging directory after abort", slog.String("staging", stage))
}
