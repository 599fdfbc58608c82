package convert

import (
	"context"

	"splatconv/internal/batch"
	"splatconv/internal/config"
	"splatconv/internal/services"
	"splatconv/internal/splat"
	"splatconv/internal/usdz"
)

// Resources bundles the expensive per-worker conversion state: one reusable
// decoder model and one exporter, bound to the settings active for the run.
type Resources struct {
	model    *splat.Model
	exporter *usdz.Exporter
	mode     batch.Mode
}

var _ batch.Converter = (*Resources)(nil)

// New builds a worker's conversion resources from configuration. ModeReduced
// forces the spherical harmonics ceiling to zero, producing the reduced
// feature output constrained renderers expect.
func New(cfg *config.Config, mode batch.Mode) (*Resources, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "convert", "build resources", "configuration is required", nil)
	}
	maxDegree := cfg.Model.MaxSHDegree
	if mode == batch.ModeReduced {
		maxDegree = 0
	}
	return &Resources{
		model: splat.NewModel(maxDegree),
		exporter: usdz.NewExporter(usdz.Settings{
			UpAxis:          cfg.Export.UpAxis,
			MetersPerUnit:   cfg.Export.MetersPerUnit,
			PointWidthScale: cfg.Export.PointWidthScale,
		}),
		mode: mode,
	}, nil
}

// Factory adapts New for the batch resource cache.
func Factory(cfg *config.Config) batch.ConverterFactory {
	return func(mode batch.Mode) (batch.Converter, error) {
		return New(cfg, mode)
	}
}

// Mode reports the conversion mode the resources were built for.
func (r *Resources) Mode() batch.Mode {
	return r.mode
}

// Load decodes the scene at path into the worker's model, replacing whatever
// the previous task loaded.
func (r *Resources) Load(ctx context.Context, path string, mode batch.Mode) (batch.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrLoad, "convert", "load scene", "canceled", err)
	}
	if mode != r.mode {
		return nil, services.Wrap(services.ErrValidation, "convert", "load scene", "conversion mode differs from worker resources", nil)
	}
	if err := r.model.LoadPLY(path); err != nil {
		return nil, services.Wrap(services.ErrLoad, "convert", "load scene", "", err)
	}
	return r.model, nil
}

// Export writes the loaded model to outputPath as a USDZ package.
func (r *Resources) Export(ctx context.Context, model batch.Model, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrExport, "convert", "export scene", "canceled", err)
	}
	loaded, ok := model.(*splat.Model)
	if !ok || loaded != r.model {
		return services.Wrap(services.ErrValidation, "convert", "export scene", "model was not produced by this worker", nil)
	}
	if err := r.exporter.Export(loaded, outputPath); err != nil {
		return services.Wrap(services.ErrExport, "convert", "export scene", "", err)
	}
	return nil
}
