package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/neurodesk/tagtmpl/pkg/config"
	"github.com/neurodesk/tagtmpl/pkg/defaulttags"
	"github.com/neurodesk/tagtmpl/pkg/tmpl"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var rootConfigPath string
var verbose bool
var noColor bool

var (
	kindColor    = color.New(color.FgCyan)
	builtinColor = color.New(color.FgYellow)
)

var rootCmd = cobra.Command{
	Use:   "tagtmpl",
	Short: "Compile, inspect and render tag templates",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		if noColor {
			color.NoColor = true
		}
	},
}

// loadConfig reads the config file. A missing file at the default path is
// not an error; the defaults are used instead.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(rootConfigPath)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		slog.Debug("no config file, using defaults", "path", rootConfigPath)
		return config.Config{}, nil
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// compileTemplate compiles name, looking it up in the configured template
// directories first and falling back to a path relative to the working
// directory.
func compileTemplate(cfg config.Config, reg *tmpl.Registry, name string) (*tmpl.Template, error) {
	loader := append(cfg.Loader(), ".")
	if filepath.IsAbs(name) {
		loader = tmpl.DirLoader{"/"}
	}
	return tmpl.Load(loader, name, reg, cfg.ParserOptions()...)
}

func loadData(path string) (map[string]any, error) {
	data := map[string]any{}
	if path == "" {
		return data, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding data file %s: %w", path, err)
	}
	return data, nil
}

var renderCmd = cobra.Command{
	Use:   "render [template]",
	Short: "Render a template to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		reg, err := cfg.Registry()
		if err != nil {
			return err
		}
		tpl, err := compileTemplate(cfg, reg, args[0])
		if err != nil {
			return err
		}

		dataPath, _ := cmd.Flags().GetString("data")
		data, err := loadData(dataPath)
		if err != nil {
			return err
		}
		vars := map[string]any{}
		for k, v := range cfg.Globals {
			vars[k] = v
		}
		for k, v := range data {
			vars[k] = v
		}

		out, err := tpl.Render(vars)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var inspectCmd = cobra.Command{
	Use:   "inspect [template]",
	Short: "Print the node tree of a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		reg, err := cfg.Registry()
		if err != nil {
			return err
		}
		tpl, err := compileTemplate(cfg, reg, args[0])
		if err != nil {
			return err
		}

		kind, _ := cmd.Flags().GetString("kind")
		if kind == "" {
			fmt.Fprint(cmd.OutOrStdout(), tmpl.Pretty(tpl.Nodes()))
			return nil
		}
		out := cmd.OutOrStdout()
		for i, n := range tpl.Nodes().FindByKind(tmpl.NodeKind(kind)) {
			desc := string(n.Kind())
			if s, ok := n.(fmt.Stringer); ok {
				desc = s.String()
			}
			fmt.Fprintf(out, "%s %s\n", kindColor.Sprintf("%s#%d", n.Kind(), i), desc)
		}
		return nil
	},
}

var tagsCmd = cobra.Command{
	Use:   "tags",
	Short: "List the tags available to templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		reg, err := cfg.Registry()
		if err != nil {
			return err
		}
		builtin := defaulttags.Tags()
		for _, name := range reg.Names() {
			if _, ok := builtin[name]; ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", name, builtinColor.Sprint("(builtin)"))
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "tagtmpl.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	renderCmd.Flags().String("data", "", "YAML file with template variables")
	rootCmd.AddCommand(&renderCmd)

	inspectCmd.Flags().String("kind", "", "Only list nodes of this kind (if, with, load, starlark, ...)")
	rootCmd.AddCommand(&inspectCmd)

	rootCmd.AddCommand(&tagsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
