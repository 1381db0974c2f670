package services

import (
	"log/slog"

	"github.com/reglet-dev/scannode/internal/application/ports"
)

// ApplyQualityOverrides switches off every automatic image adjustment so
// frames taken within a cycle are not re-tuned between captures. It runs once
// per sensor init. Failures are logged and skipped; it returns how many
// overrides took effect.
func ApplyQualityOverrides(ctrl ports.SensorControl, logger *slog.Logger) int {
	if ctrl == nil {
		logger.Warn("sensor has no control surface, quality overrides skipped")
		return 0
	}

	overrides := []struct {
		apply func() error
		name  string
	}{
		{name: "manual_gain", apply: ctrl.SetManualGain},
		{name: "manual_exposure", apply: ctrl.SetManualExposure},
		{name: "awb_off", apply: ctrl.DisableAutoWhiteBalance},
		{name: "lens_correction_off", apply: ctrl.DisableLensCorrection},
	}

	applied := 0
	for _, o := range overrides {
		if err := o.apply(); err != nil {
			logger.Warn("sensor override failed", "override", o.name, "error", err)
			continue
		}
		applied++
	}
	return applied
}
