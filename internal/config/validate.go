package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateModel(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateConversion() error {
	if !strings.HasPrefix(c.Conversion.InputExtension, ".") || len(c.Conversion.InputExtension) < 2 {
		return fmt.Errorf("conversion.input_extension must name a file extension, got %q", c.Conversion.InputExtension)
	}
	if !strings.HasPrefix(c.Conversion.OutputExtension, ".") || len(c.Conversion.OutputExtension) < 2 {
		return fmt.Errorf("conversion.output_extension must name a file extension, got %q", c.Conversion.OutputExtension)
	}
	if c.Conversion.Workers < 1 {
		return errors.New("conversion.workers must be at least 1")
	}
	return nil
}

func (c *Config) validateModel() error {
	if c.Model.MaxSHDegree < 0 || c.Model.MaxSHDegree > 3 {
		return errors.New("model.max_sh_degree must be between 0 and 3")
	}
	return nil
}

func (c *Config) validateExport() error {
	switch c.Export.UpAxis {
	case "Y", "Z":
	default:
		return fmt.Errorf("export.up_axis must be Y or Z, got %q", c.Export.UpAxis)
	}
	if err := ensurePositiveMap(map[string]float64{
		"export.meters_per_unit":   c.Export.MetersPerUnit,
		"export.point_width_scale": c.Export.PointWidthScale,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]float64) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
