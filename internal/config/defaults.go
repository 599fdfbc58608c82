package config

const (
	defaultLogDir          = "~/.local/share/splatconv/logs"
	defaultInputExtension  = ".ply"
	defaultOutputExtension = ".usdz"
	defaultWorkers         = 4
	defaultMaxSHDegree     = 3
	defaultUpAxis          = "Y"
	defaultMetersPerUnit   = 1.0
	defaultPointWidthScale = 1.0
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Conversion: Conversion{
			InputExtension:  defaultInputExtension,
			OutputExtension: defaultOutputExtension,
			Workers:         defaultWorkers,
		},
		Model: Model{
			MaxSHDegree: defaultMaxSHDegree,
		},
		Export: Export{
			UpAxis:          defaultUpAxis,
			MetersPerUnit:   defaultMetersPerUnit,
			PointWidthScale: defaultPointWidthScale,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
