package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	DefaultMaxPatientIndex = 500
	DefaultMaxStudyIndex   = 2
	DefaultOutputDirName   = "deidentified_data"
	DefaultMetadataFile    = "metadata.csv"
	DefaultImageDir        = "images"
)

// Image output formats.
const (
	FormatPNG  = "png"
	FormatTIFF = "tiff"
)

type Config struct {
	DataDir         string `yaml:"data_dir"`
	OutputDir       string `yaml:"output_dir"`
	MaxPatientIndex int    `yaml:"max_patient_index"`
	MaxStudyIndex   int    `yaml:"max_study_index"`
	TagsFile        string `yaml:"tags_file"`
	MetadataFile    string `yaml:"metadata_file"`
	ImageDir        string `yaml:"image_dir"`
	ImageFormat     string `yaml:"image_format"`
	IgnoreHidden    bool   `yaml:"ignore_hidden"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
	NotifyURL       string `yaml:"notify_url"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DataDir:         "data",
		MaxPatientIndex: DefaultMaxPatientIndex,
		MaxStudyIndex:   DefaultMaxStudyIndex,
		MetadataFile:    DefaultMetadataFile,
		ImageDir:        DefaultImageDir,
		ImageFormat:     FormatPNG,
		IgnoreHidden:    true,
		LogLevel:        "error",
		LogFormat:       "console",
	}
}

// ReadConfig reads a yaml file on top of the defaults. Keys missing from the
// file keep their default value.
func ReadConfig(filePath string) (*Config, error) {
	file, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	config := Default()
	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}

	return config, nil
}

// Validate checks the values that cannot be fixed at runtime.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is empty"))
	}
	if c.MaxPatientIndex < 1 {
		errs = append(errs, fmt.Errorf("max_patient_index must be positive, got %d", c.MaxPatientIndex))
	}
	if c.MaxStudyIndex < 1 {
		errs = append(errs, fmt.Errorf("max_study_index must be positive, got %d", c.MaxStudyIndex))
	}
	switch c.ImageFormat {
	case FormatPNG, FormatTIFF:
	default:
		errs = append(errs, fmt.Errorf("unknown image_format %q", c.ImageFormat))
	}
	if err := checkName("metadata_file", c.MetadataFile); err != nil {
		errs = append(errs, err)
	}
	if err := checkName("image_dir", c.ImageDir); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// OutputRoot is the directory receiving the table and the images. It
// defaults to a sibling of the data directory.
func (c *Config) OutputRoot() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return filepath.Join(filepath.Dir(filepath.Clean(c.DataDir)), DefaultOutputDirName)
}

func (c *Config) MetadataPath() string {
	return filepath.Join(c.OutputRoot(), c.MetadataFile)
}

func (c *Config) ImagePath() string {
	return filepath.Join(c.OutputRoot(), c.ImageDir)
}

func checkName(key, name string) error {
	if name == "" {
		return fmt.Errorf("%s is empty", key)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%s must be a plain name, got %q", key, name)
	}
	return nil
}
