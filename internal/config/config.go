package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/turbolytics/shop-extractor/internal"
)

const (
	DefaultMaxFailsPerCall = 3

	// FileName is the name of the configuration file inside the data directory.
	FileName = "config.json"
)

var (
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidParameter = errors.New("invalid parameter")
)

type LocalArchive struct {
	Path string `json:"path" yaml:"path"`
}

type S3Archive struct {
	Bucket         string `json:"bucket" yaml:"bucket"`
	Region         string `json:"region" yaml:"region"`
	Prefix         string `json:"prefix" yaml:"prefix"`
	Endpoint       string `json:"endpoint" yaml:"endpoint"`
	ForcePathStyle bool   `json:"force_path_style" yaml:"force_path_style"`
}

// Archive configures where a finished run is copied to.
type Archive struct {
	Type   string       `json:"type" yaml:"type"`
	Format string       `json:"format" yaml:"format"`
	Local  LocalArchive `json:"local" yaml:"local"`
	S3     S3Archive    `json:"s3" yaml:"s3"`
}

type Parameters struct {
	ColumnNames            []string        `json:"column_names" yaml:"column_names"`
	APIURL                 string          `json:"api_url" yaml:"api_url"`
	Shops                  []internal.Shop `json:"shops" yaml:"shops"`
	InterbatchSleepSeconds *float64        `json:"interbatch_sleep_seconds" yaml:"interbatch_sleep_seconds"`
	MaxFailsPerCall        *int            `json:"max_fails_per_call" yaml:"max_fails_per_call"`
	Debug                  bool            `json:"debug" yaml:"debug"`
	Archive                *Archive        `json:"archive" yaml:"archive"`
}

// InterbatchSleep is the delay applied before every page request.
func (p Parameters) InterbatchSleep() time.Duration {
	if p.InterbatchSleepSeconds == nil {
		return 0
	}
	return time.Duration(*p.InterbatchSleepSeconds * float64(time.Second))
}

func (p Parameters) MaxFails() int {
	if p.MaxFailsPerCall == nil {
		return DefaultMaxFailsPerCall
	}
	return *p.MaxFailsPerCall
}

type Config struct {
	Parameters Parameters `json:"parameters" yaml:"parameters"`
}

// NewFromFile reads a config file. Files ending in .yml or .yaml are decoded
// as YAML, everything else as JSON.
func NewFromFile(fpath string) (*Config, error) {
	bs, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}

	var c Config
	switch strings.ToLower(filepath.Ext(fpath)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(bs, &c)
	default:
		err = json.Unmarshal(bs, &c)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fpath, err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports every missing or invalid parameter at once.
func (c *Config) Validate() error {
	p := c.Parameters
	var errs []error

	if len(p.ColumnNames) == 0 {
		errs = append(errs, fmt.Errorf("%w: column_names", ErrMissingParameter))
	}
	if p.APIURL == "" {
		errs = append(errs, fmt.Errorf("%w: api_url", ErrMissingParameter))
	}
	if p.Shops == nil {
		errs = append(errs, fmt.Errorf("%w: shops", ErrMissingParameter))
	}
	for i, shop := range p.Shops {
		if shop.VendorID == "" {
			errs = append(errs, fmt.Errorf("%w: shops[%d].vendor_id", ErrMissingParameter, i))
		}
		if shop.ClientID == "" {
			errs = append(errs, fmt.Errorf("%w: shops[%d].#client_id", ErrMissingParameter, i))
		}
	}
	if p.InterbatchSleepSeconds == nil {
		errs = append(errs, fmt.Errorf("%w: interbatch_sleep_seconds", ErrMissingParameter))
	} else if *p.InterbatchSleepSeconds < 0 {
		errs = append(errs, fmt.Errorf("%w: interbatch_sleep_seconds must be >= 0", ErrInvalidParameter))
	}
	if p.MaxFailsPerCall != nil && *p.MaxFailsPerCall < 0 {
		errs = append(errs, fmt.Errorf("%w: max_fails_per_call must be >= 0", ErrInvalidParameter))
	}
	if p.Archive != nil {
		if err := p.Archive.validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (a *Archive) validate() error {
	switch a.Format {
	case "":
		a.Format = "csv"
	case "csv", "parquet":
	default:
		return fmt.Errorf("%w: archive.format %q", ErrInvalidParameter, a.Format)
	}

	switch a.Type {
	case "local":
		if a.Local.Path == "" {
			return fmt.Errorf("%w: archive.local.path", ErrMissingParameter)
		}
	case "s3":
		if a.S3.Bucket == "" {
			return fmt.Errorf("%w: archive.s3.bucket", ErrMissingParameter)
		}
	default:
		return fmt.Errorf("%w: archive.type %q", ErrInvalidParameter, a.Type)
	}
	return nil
}
