package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	PxToRemConfig struct {
		Enable bool    `yaml:"enable"`
		RootPx float64 `yaml:"root_px" validate:"gt=0"`
	}

	ShorthandsConfig struct {
		Strategy ShorthandStrategy `yaml:"strategy" validate:"oneof=expand keep reject"`
		// Disallowed overrides deny-set of reject strategy, when empty
		// knowledge tables are used.
		Disallowed []string `yaml:"disallowed" validate:"dive,required"`
		// Message is reported for disallowed shorthands, %s is replaced
		// with property name.
		Message string `yaml:"message"`
	}

	ValidationConfig struct {
		Level ValidationLevel `yaml:"level" validate:"oneof=ignore warn error"`
		// Suggestions is maximum number of similar property names offered
		// for unknown property.
		Suggestions int `yaml:"suggestions" validate:"min=0,max=10"`
	}

	CompilerConfig struct {
		UseCSSLayers    bool             `yaml:"use_css_layers"`
		ClassPrefix     string           `yaml:"class_prefix" validate:"required,excludesall=.#:"`
		DebugClassNames bool             `yaml:"debug_class_names"`
		PxToRem         PxToRemConfig    `yaml:"px_to_rem"`
		Shorthands      ShorthandsConfig `yaml:"shorthands"`
		Validation      ValidationConfig `yaml:"validation"`
		ValuePrefixing  bool             `yaml:"value_prefixing"`
		RTLSeparator    string           `yaml:"rtl_separator" validate:"required"`
		Banner          string           `yaml:"banner"`
		TablesPath      string           `yaml:"tables_path" sanitize:"assure_file_access"`
	}

	ManifestConfig struct {
		// Path to SQLite manifest, when empty manifest is kept in memory for
		// the duration of a single run.
		Path string `yaml:"path" sanitize:"path_clean,assure_dir_exists_for_file" validate:"omitempty,filepath"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Compiler  CompilerConfig `yaml:"compiler"`
		Manifest  ManifestConfig `yaml:"manifest"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("configuration sanitizing failed: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to
// provide sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
