package dicl

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ezoic/dicl/icl"
	"github.com/ezoic/dicl/pkg/errors"
	"github.com/ezoic/dicl/preprocessing"
)

// Variant names the reduction stage of the disentangler.
type Variant string

const (
	// VariantIdentity keeps every feature as its own component (vICL).
	VariantIdentity Variant = "identity"
	// VariantPCA reduces the features with principal component analysis.
	VariantPCA Variant = "pca"
)

// Config is the serialisable description of a forecaster.
type Config struct {
	NFeatures     int                `yaml:"n_features" json:"n_features"`
	NComponents   int                `yaml:"n_components" json:"n_components"`
	Variant       Variant            `yaml:"variant" json:"variant"`
	RescaleFactor float64            `yaml:"rescale_factor" json:"rescale_factor"`
	UpShift       float64            `yaml:"up_shift" json:"up_shift"`
	Mode          icl.GenerationMode `yaml:"mode" json:"mode"`

	// Window and Seed configure the moving-window reference trainer
	Window int    `yaml:"window" json:"window"`
	Seed   uint64 `yaml:"seed" json:"seed"`

	// Verbose logs the fitting time of every disentangler stage
	Verbose  bool   `yaml:"verbose" json:"verbose"`
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns a configuration with the default band and the identity variant.
// NFeatures must still be set.
func DefaultConfig() Config {
	return Config{
		Variant:       VariantIdentity,
		RescaleFactor: preprocessing.DefaultRescaleFactor,
		UpShift:       preprocessing.DefaultUpShift,
		Mode:          icl.Deterministic,
		Window:        icl.DefaultWindow,
		LogLevel:      "info",
	}
}

// Validate returns a ConfigError describing the first inconsistent field.
func (c Config) Validate() error {
	if c.NFeatures < 1 {
		return errors.NewConfigError("n_features", fmt.Sprintf("must be at least 1, got %d", c.NFeatures))
	}
	switch c.Variant {
	case VariantIdentity:
		if c.NComponents != c.NFeatures {
			return errors.NewConfigError("n_components",
				fmt.Sprintf("identity variant needs n_components == n_features (%d), got %d", c.NFeatures, c.NComponents))
		}
	case VariantPCA:
		if c.NComponents < 1 || c.NComponents > c.NFeatures {
			return errors.NewConfigError("n_components",
				fmt.Sprintf("pca variant needs n_components in [1, %d], got %d", c.NFeatures, c.NComponents))
		}
	default:
		return errors.NewConfigError("variant", fmt.Sprintf("unknown variant %q", c.Variant))
	}
	if err := preprocessing.NewRescaler(c.RescaleFactor, c.UpShift).Validate(); err != nil {
		return errors.NewConfigError("rescale_factor", err.Error())
	}
	if c.Window < 1 {
		return errors.NewConfigError("window", fmt.Sprintf("must be at least 1, got %d", c.Window))
	}
	return nil
}

// LoadConfig decodes a YAML configuration on top of DefaultConfig and validates it.
// An identity configuration without n_components inherits n_features.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}
	if cfg.Variant == VariantIdentity && cfg.NComponents == 0 {
		cfg.NComponents = cfg.NFeatures
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to open %s", path)
	}
	defer func() { _ = file.Close() }()
	return LoadConfig(file)
}
