package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// MappingFile is the declarative description of every upstream source the
// engine synchronizes from. Keys are matched case-insensitively because viper
// lowercases them on read.
type MappingFile struct {
	Sources []SourceConfig `mapstructure:"sources"`
}

type SourceConfig struct {
	ID           string                    `mapstructure:"id"`
	BaseURL      string                    `mapstructure:"baseUrl"`
	Organization string                    `mapstructure:"organization"`
	PageSize     int                       `mapstructure:"pageSize"`
	Resources    map[string]ResourceConfig `mapstructure:"resources"`
}

// ResourceConfig holds the search filter and field mapping for one resource
// type. Search may contain the {organization} and {parent} placeholders; the
// latter requires Scope to name the parent type.
type ResourceConfig struct {
	Search string            `mapstructure:"search"`
	Scope  string            `mapstructure:"scope"`
	Fields map[string]string `mapstructure:"fields"`
}

// Resource returns the resource configuration for a type name, ignoring case.
func (s SourceConfig) Resource(typeName string) (ResourceConfig, bool) {
	for name, rc := range s.Resources {
		if strings.EqualFold(name, typeName) {
			return rc, true
		}
	}
	return ResourceConfig{}, false
}

// LoadMappings reads and validates the mapping file at path.
func LoadMappings(path string) (*MappingFile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read mapping file %s: %w", path, err)
	}

	mf := &MappingFile{}
	if err := v.Unmarshal(mf); err != nil {
		return nil, fmt.Errorf("unmarshal mapping file: %w", err)
	}
	if err := mf.Validate(); err != nil {
		return nil, err
	}
	return mf, nil
}

// Validate checks source-level settings and fills defaults. Field expressions
// are compiled separately, when the source registry is built.
func (mf *MappingFile) Validate() error {
	if len(mf.Sources) == 0 {
		return fmt.Errorf("mapping file declares no sources")
	}
	seen := make(map[string]bool, len(mf.Sources))
	for i := range mf.Sources {
		src := &mf.Sources[i]
		if src.ID == "" {
			return fmt.Errorf("source #%d: id is required", i+1)
		}
		if seen[src.ID] {
			return fmt.Errorf("source %q declared twice", src.ID)
		}
		seen[src.ID] = true

		u, err := url.Parse(src.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("source %q: baseUrl must be an absolute http(s) URL, got %q", src.ID, src.BaseURL)
		}
		src.BaseURL = strings.TrimRight(src.BaseURL, "/")

		if src.PageSize == 0 {
			src.PageSize = DefaultPageSize
		}
		if src.PageSize < 0 || src.PageSize > MaxPageSize {
			return fmt.Errorf("source %q: pageSize must be between 1 and %d", src.ID, MaxPageSize)
		}
		if len(src.Resources) == 0 {
			return fmt.Errorf("source %q: no resources mapped", src.ID)
		}
		for name, rc := range src.Resources {
			if len(rc.Fields) == 0 {
				return fmt.Errorf("source %q: resource %s maps no fields", src.ID, name)
			}
			if strings.Contains(rc.Search, "{parent}") && rc.Scope == "" {
				return fmt.Errorf("source %q: resource %s uses {parent} without a scope", src.ID, name)
			}
		}
	}
	return nil
}
