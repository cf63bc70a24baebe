package conduit

import (
	"errors"
	"fmt"
	"os"

	"conduit-sync/core/reconcile"

	"github.com/spf13/viper"
)

// Endpoint types understood by the factory.
const (
	TypeFolder = "folder"
	TypeS3     = "s3"
	TypeMemory = "memory"
)

// EndpointDef describes one side of a conduit.
type EndpointDef struct {
	Type string `mapstructure:"type" json:"type"`
	// Path is the folder path, or the store name of a memory endpoint.
	Path           string `mapstructure:"path" json:"path,omitempty"`
	IncludeHidden  bool   `mapstructure:"include_hidden" json:"include_hidden,omitempty"`
	FollowSymlinks bool   `mapstructure:"follow_symlinks" json:"follow_symlinks,omitempty"`
	// Bucket defaults to storage.bucket.
	Bucket       string `mapstructure:"bucket" json:"bucket,omitempty"`
	Prefix       string `mapstructure:"prefix" json:"prefix,omitempty"`
	CreateBucket bool   `mapstructure:"create_bucket" json:"create_bucket,omitempty"`
	InType       string `mapstructure:"in_type" json:"in_type,omitempty"`
}

// PolicyDef holds the raw policy names.
type PolicyDef struct {
	Conflict string `mapstructure:"conflict" json:"conflict"`
	Deleted  string `mapstructure:"deleted" json:"deleted"`
}

// Definition is one conduit entry of the conduits file.
type Definition struct {
	Name     string      `mapstructure:"name" json:"name"`
	Source   EndpointDef `mapstructure:"source" json:"source"`
	Sink     EndpointDef `mapstructure:"sink" json:"sink"`
	TwoWay   bool        `mapstructure:"two_way" json:"two_way"`
	SlowSync bool        `mapstructure:"slow_sync" json:"slow_sync"`
	Autosync bool        `mapstructure:"autosync" json:"autosync"`
	Policy   PolicyDef   `mapstructure:"policy" json:"policy"`
}

// Options converts the definition into reconciler options.
func (d Definition) Options() (reconcile.Options, error) {
	conflict, err := reconcile.ParsePolicy(d.Policy.Conflict)
	if err != nil {
		return reconcile.Options{}, fmt.Errorf("conflict policy: %w", err)
	}
	deleted, err := reconcile.ParsePolicy(d.Policy.Deleted)
	if err != nil {
		return reconcile.Options{}, fmt.Errorf("deleted policy: %w", err)
	}
	return reconcile.Options{
		Conflict: conflict,
		Deleted:  deleted,
		TwoWay:   d.TwoWay,
		SlowSync: d.SlowSync,
	}, nil
}

// Validate checks names, endpoint types and policies.
func (d Definition) Validate() error {
	if d.Name == "" {
		return errors.New("conduit without a name")
	}
	for _, side := range []struct {
		name string
		def  EndpointDef
	}{{"source", d.Source}, {"sink", d.Sink}} {
		switch side.def.Type {
		case TypeFolder, TypeS3, TypeMemory:
		case "":
			return fmt.Errorf("conduit %s: %s has no type", d.Name, side.name)
		default:
			return fmt.Errorf("conduit %s: unknown %s type %q", d.Name, side.name, side.def.Type)
		}
	}
	if _, err := d.Options(); err != nil {
		return fmt.Errorf("conduit %s: %w", d.Name, err)
	}
	return nil
}

// LoadDefinitions reads the conduits file. A missing file yields an error
// matching os.ErrNotExist.
func LoadDefinitions(path string) ([]Definition, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("conduits file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read conduits file: %w", err)
	}

	var defs []Definition
	if err := v.UnmarshalKey("conduits", &defs); err != nil {
		return nil, fmt.Errorf("failed to parse conduits file: %w", err)
	}

	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("duplicate conduit %q", d.Name)
		}
		seen[d.Name] = true
	}
	return defs, nil
}
