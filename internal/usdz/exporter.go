package usdz

import (
	"bytes"
	"fmt"
	"io"

	"splatconv/internal/fileutil"
	"splatconv/internal/splat"
)

// Settings carries the export knobs taken from configuration. Zero values
// fall back to sensible defaults so a zero Settings is usable.
type Settings struct {
	UpAxis          string
	MetersPerUnit   float64
	PointWidthScale float64
}

// Exporter packages splat models as USDZ files. One Exporter is built per
// worker and reused for every task that lands on it.
type Exporter struct {
	settings Settings
}

func NewExporter(settings Settings) *Exporter {
	if settings.UpAxis == "" {
		settings.UpAxis = "Y"
	}
	if settings.MetersPerUnit <= 0 {
		settings.MetersPerUnit = 1
	}
	if settings.PointWidthScale <= 0 {
		settings.PointWidthScale = 1
	}
	return &Exporter{settings: settings}
}

// Export writes model to outputPath. The package is staged in a temporary
// file and renamed into place, so a failed export never leaves a partial
// archive behind. The parent directory must already exist.
func (e *Exporter) Export(model *splat.Model, outputPath string) error {
	doc := sceneDoc{
		name:          PrimName(outputPath),
		upAxis:        e.settings.UpAxis,
		metersPerUnit: e.settings.MetersPerUnit,
		widthScale:    e.settings.PointWidthScale,
	}

	var layer bytes.Buffer
	if err := doc.write(&layer, model); err != nil {
		return fmt.Errorf("author scene: %w", err)
	}

	return fileutil.WriteAtomic(outputPath, func(w io.Writer) error {
		pkg := newPackageWriter(w)
		if err := pkg.add(doc.name+".usda", layer.Bytes()); err != nil {
			return err
		}
		return pkg.Close()
	})
}
