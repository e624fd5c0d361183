package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Inputs  InputsConfig  `yaml:"inputs" mapstructure:"inputs"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Policy  PolicyConfig  `yaml:"policy" mapstructure:"policy"`
	Network NetworkConfig `yaml:"network" mapstructure:"network"`
	Blocks  BlocksConfig  `yaml:"blocks" mapstructure:"blocks"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// InputsConfig holds paths to the seven input vector layers. All layers must
// already be in the same planar projected CRS.
type InputsConfig struct {
	Network   string `yaml:"network" mapstructure:"network"`
	Transit   string `yaml:"transit" mapstructure:"transit"`
	Bike      string `yaml:"bike" mapstructure:"bike"`
	Exception string `yaml:"exception" mapstructure:"exception"`
	Lifeline  string `yaml:"lifeline" mapstructure:"lifeline"`
	Buildings string `yaml:"buildings" mapstructure:"buildings"`
	Parcels   string `yaml:"parcels" mapstructure:"parcels"`
}

// OutputConfig configures where run folders are created.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// PolicyConfig points at an optional policy override file.
type PolicyConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// NetworkConfig holds the segmentation tunables (distances in CRS units).
type NetworkConfig struct {
	HierarchyField     string  `yaml:"hierarchy_field" mapstructure:"hierarchy_field"`
	ExclusionBuffer    float64 `yaml:"exclusion_buffer" mapstructure:"exclusion_buffer"`
	NetworkBuffer      float64 `yaml:"network_buffer" mapstructure:"network_buffer"`
	SnapTolerance      float64 `yaml:"snap_tolerance" mapstructure:"snap_tolerance"`
	MinComponentLength float64 `yaml:"min_component_length" mapstructure:"min_component_length"`
}

// BlocksConfig holds the block-extraction tunables.
type BlocksConfig struct {
	ExclusionInset float64 `yaml:"exclusion_inset" mapstructure:"exclusion_inset"`
	MaxBlockArea   float64 `yaml:"max_block_area" mapstructure:"max_block_area"`
}

// ScoringConfig selects the weight preset and compactness formula.
type ScoringConfig struct {
	WeightPreset string `yaml:"weight_preset" mapstructure:"weight_preset"`
	Compactness  string `yaml:"compactness" mapstructure:"compactness"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SUPERBLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("network.hierarchy_field", "Strassennetzhierarchie")
	v.SetDefault("network.exclusion_buffer", 15.0)
	v.SetDefault("network.network_buffer", 15.0)
	v.SetDefault("network.snap_tolerance", 0.5)
	v.SetDefault("network.min_component_length", 25.0)
	v.SetDefault("blocks.exclusion_inset", 8.0)
	v.SetDefault("blocks.max_block_area", 60000.0)
	v.SetDefault("scoring.weight_preset", "80/20")
	v.SetDefault("scoring.compactness", "aspect")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
