// Package config loads the YAML file that describes how templates are
// compiled: nesting limits, where tag libraries live and which of them are
// loaded up front.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/neurodesk/tagtmpl/pkg/defaulttags"
	"github.com/neurodesk/tagtmpl/pkg/netcache"
	"github.com/neurodesk/tagtmpl/pkg/starlark"
	"github.com/neurodesk/tagtmpl/pkg/tmpl"
	v "github.com/neurodesk/tagtmpl/pkg/validator"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// MaxDepth limits tag nesting; 0 means tmpl.DefaultMaxDepth.
	MaxDepth int `yaml:"max_depth,omitempty"`
	// LibraryDirs are searched for <name>.star when a template says {% load name %}.
	LibraryDirs []string `yaml:"library_dirs,omitempty"`
	// LibraryURLs are searched for <name>.star after LibraryDirs.
	LibraryURLs []string `yaml:"library_urls,omitempty"`
	// CacheDir holds downloaded libraries; defaults to the user cache dir.
	CacheDir string `yaml:"cache_dir,omitempty"`
	// Preload names libraries whose tags are available without {% load %}.
	Preload []string `yaml:"preload,omitempty"`
	// TemplateDirs are searched for templates referenced by name.
	TemplateDirs []string `yaml:"template_dirs,omitempty"`
	// Globals are bound in the root scope of every render.
	Globals map[string]any `yaml:"globals,omitempty"`
}

// Load reads and validates the config file at path. Relative directories
// are resolved against the directory holding the file.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("decoding config file %s: %w", path, err)
	}
	base := filepath.Dir(path)
	cfg.LibraryDirs = resolveDirs(base, cfg.LibraryDirs)
	cfg.TemplateDirs = resolveDirs(base, cfg.TemplateDirs)
	if cfg.CacheDir != "" {
		cfg.CacheDir = resolveDirs(base, []string{cfg.CacheDir})[0]
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config file %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses a config document. Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, err
	}
	return cfg, nil
}

func resolveDirs(base string, dirs []string) []string {
	out := make([]string, len(dirs))
	for i, d := range dirs {
		if d != "" && !filepath.IsAbs(d) {
			d = filepath.Join(base, d)
		}
		out[i] = d
	}
	return out
}

func (c Config) Validate() error {
	var depth error
	if c.MaxDepth != 0 {
		depth = v.Positive(c.MaxDepth, "max_depth")
	}
	return v.All(
		depth,
		v.Map(c.LibraryDirs, func(dir string, key string) error {
			return v.All(
				v.NotEmpty(dir, key),
				v.DirExists(dir, key),
			)
		}, "library_dirs"),
		v.NoDuplicates(c.LibraryDirs, "library_dirs"),
		v.Map(c.LibraryURLs, func(u string, key string) error {
			return v.URL(u, key)
		}, "library_urls"),
		v.NoDuplicates(c.LibraryURLs, "library_urls"),
		v.Map(c.Preload, func(name string, key string) error {
			return v.All(
				v.NotEmpty(name, key),
				v.HasNoTemplateTags(name, key),
			)
		}, "preload"),
		v.NoDuplicates(c.Preload, "preload"),
		v.Map(c.TemplateDirs, func(dir string, key string) error {
			return v.NotEmpty(dir, key)
		}, "template_dirs"),
		v.MapDict(c.Globals, func(key string, _ any) error {
			return v.All(
				v.NotEmpty(key, "globals key"),
				v.HasNoTemplateTags(key, "globals key"),
			)
		}, "globals"),
	)
}

// Registry builds a registry with the default tags, Starlark loaders over
// LibraryDirs and LibraryURLs, and every preloaded library.
func (c Config) Registry() (*tmpl.Registry, error) {
	reg := defaulttags.NewRegistry()
	loader, err := c.libraryLoader()
	if err != nil {
		return nil, err
	}
	reg.SetLibraryLoader(loader)
	for _, name := range c.Preload {
		if err := reg.LoadLibrary(name); err != nil {
			return nil, fmt.Errorf("preloading library %q: %w", name, err)
		}
	}
	slog.Debug("registry ready", "tags", reg.Names())
	return reg, nil
}

func (c Config) libraryLoader() (tmpl.LibraryLoader, error) {
	local := starlark.Loader{Dirs: c.LibraryDirs, Globals: c.Globals}
	if len(c.LibraryURLs) == 0 {
		return local, nil
	}
	dir := c.CacheDir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("locating cache dir: %w", err)
		}
		dir = filepath.Join(base, "tagtmpl", "libraries")
	}
	return tmpl.ChainLoader{
		local,
		starlark.RemoteLoader{BaseURLs: c.LibraryURLs, Cache: netcache.New(dir), Globals: c.Globals},
	}, nil
}

// ParserOptions returns the parser options implied by the config.
func (c Config) ParserOptions() []tmpl.ParserOption {
	return []tmpl.ParserOption{tmpl.WithMaxDepth(c.MaxDepth)}
}

// Loader returns a template loader over TemplateDirs.
func (c Config) Loader() tmpl.DirLoader {
	return append(tmpl.DirLoader{}, c.TemplateDirs...)
}
