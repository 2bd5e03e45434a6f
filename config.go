package pagekit

import (
	"net/url"
	"os"
	"reflect"
	"strings"

	"pagekit/vars"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Supported datasource types.
const (
	DataSourceMariaDB = "mariadb"
	DataSourceMySQL   = "mysql"
	DataSourceSQLite  = "sqlite"
)

// DefaultConfigPath is the file read by Init.
const DefaultConfigPath = "pagekit.yaml"

// Config represents the entire YAML configuration
type Config struct {
	Version     string       `yaml:"version"`
	DataSources []DataSource `yaml:"datasources" validate:"required,min=1,dive"`
	Runner      runner       `yaml:"runner"`
	Paging      PagingConfig `yaml:"paging"`
	Log         LogConfig    `yaml:"log"`
}

// DataSource represents a single data source configuration
type DataSource struct {
	Name   string        `yaml:"name" validate:"required"`
	Type   string        `yaml:"type" validate:"oneof=mariadb mysql sqlite"`
	Config ConfigDetails `yaml:"config"`
}

type runner struct {
	Paths []string `yaml:"paths"`
}

// PagingConfig holds the defaults of requests made by a client.
type PagingConfig struct {
	DefaultPageSize int  `yaml:"default_page_size" validate:"gte=1,ltefield=MaxPageSize"`
	MaxPageSize     int  `yaml:"max_page_size" validate:"gte=1"`
	Concurrent      bool `yaml:"concurrent"`
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
}

// ConfigDetails contains the details of the configuration
type ConfigDetails struct {
	Host            string     `yaml:"host"`
	Port            int        `yaml:"port"`
	Username        string     `yaml:"username"`
	Password        string     `yaml:"password"`
	DatabaseName    string     `yaml:"database_name"`
	Parameters      url.Values `yaml:"parameters"`
	ConnMaxIdleTime int        `yaml:"conn_max_idle_time"`
	ConnMaxLifetime int        `yaml:"conn_max_lifetime"`
	MaxOpenConns    int        `yaml:"max_open_conns"`
	MaxIdleConns    int        `yaml:"max_idle_conns"`

	// Path is the database file of a sqlite datasource.
	Path string `yaml:"path"`
}

// FindByName returns the datasource called name.
func (c *Config) FindByName(name string) (*DataSource, error) {
	for _, ds := range c.DataSources {
		if ds.Name == name {
			return &ds, nil
		}
	}
	return nil, errors.Wrapf(ErrDataSourceNotFound, "data source %s", name)
}

// Validate checks datasource types and paging sizes.
func (c *Config) Validate() error {

	if err := configValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.Errorf("invalid config: %s failed on %s", verrs[0].Namespace(), verrs[0].Tag())
		}
		return errors.Wrap(err, "invalid config")
	}

	for _, ds := range c.DataSources {
		if ds.Type == DataSourceSQLite && ds.Config.Path == "" {
			return errors.Errorf("invalid config: sqlite data source %s needs a path", ds.Name)
		}
	}

	return nil

}

// setDefaults fills the paging section when it is left out.
func (c *Config) setDefaults() {

	if c.Paging.MaxPageSize == 0 {
		c.Paging.MaxPageSize = vars.DefaultMaxPageSize
	}

	if c.Paging.DefaultPageSize == 0 {
		c.Paging.DefaultPageSize = min(vars.DefaultPageSize, c.Paging.MaxPageSize)
	}

}

// LoadConfig reads, defaults and validates the YAML file at filePath.
func LoadConfig(filePath string) (*Config, error) {

	// Read the file
	yamlData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the file")
	}

	return parseConfig(yamlData)

}

func parseConfig(yamlData []byte) (*Config, error) {

	var config Config

	// Unmarshal the YAML data into the Config struct
	if err := yaml.Unmarshal(yamlData, &config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil

}

var configValidate = newConfigValidator()

func newConfigValidator() *validator.Validate {

	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their yaml names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return v

}
