// Command fegfx builds finite element graphics described by a script over
// a generated mesh and reports what was built.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chazu/fegraphics/pkg/appearance"
	"github.com/chazu/fegraphics/pkg/config"
	"github.com/chazu/fegraphics/pkg/femesh"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/chazu/fegraphics/pkg/graphics"
	"github.com/chazu/fegraphics/pkg/logging"
	"github.com/chazu/fegraphics/pkg/metrics"
	"github.com/chazu/fegraphics/pkg/script"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	verbose    bool
}

type sourceOptions struct {
	script string
	mesh   string
}

func (o *sourceOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.script, "script", "s", "", "graphics script to evaluate")
	cmd.Flags().StringVarP(&o.mesh, "mesh", "m", "cube:2", "generated mesh: line:N, square:N or cube:N, sizes may be NxM")
	_ = cmd.MarkFlagRequired("script")
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "fegfx",
		Short:        "Build finite element graphics from a script",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "fegfx.hcl", "configuration file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")
	root.AddCommand(newBuildCmd(opts), newValidateCmd(opts))
	return root
}

// setup loads the configuration and installs the logger it names.
func setup(opts *rootOptions) (*config.Config, func(), error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	level, dev := cfg.Log.Level, cfg.Log.Development
	if opts.verbose {
		level, dev = "debug", true
	}
	logger, err := logging.New(level, dev)
	if err != nil {
		return nil, nil, err
	}
	logging.SetLogger(logger)
	return cfg, func() { _ = logger.Sync() }, nil
}

func newBuildCmd(root *rootOptions) *cobra.Command {
	var (
		src         sourceOptions
		time        float64
		showMetrics bool
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Evaluate a script and build its graphics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, done, err := setup(root)
			if err != nil {
				return err
			}
			defer done()

			source, err := os.ReadFile(src.script)
			if err != nil {
				return err
			}
			region, err := newRegion(cfg, src.mesh)
			if err != nil {
				return err
			}
			defer region.Close()

			m := metrics.New()
			app, err := NewApp(cfg, region, m)
			if err != nil {
				return err
			}
			if time != 0 {
				app.SetTime(time)
			}
			result := app.Evaluate(string(source))
			logging.L().Info("build finished",
				zap.String("script", src.script),
				zap.Int("meshes", len(result.Meshes)),
				zap.Int("errors", len(result.Errors)),
				zap.Int("warnings", len(result.Warnings)))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else {
				printFindings(cmd, result)
				if err := app.Scene().WriteStats(out); err != nil {
					return err
				}
				if showMetrics {
					fmt.Fprintln(out)
					if err := m.WriteSummary(out); err != nil {
						return err
					}
				}
			}
			if n := len(result.Errors); n > 0 {
				return fmt.Errorf("%s: %d errors", src.script, n)
			}
			return nil
		},
	}
	src.bind(cmd)
	cmd.Flags().Float64VarP(&time, "time", "t", 0, "evaluation time for time dependent fields")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print build metrics")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print built meshes as JSON")
	return cmd
}

func printFindings(cmd *cobra.Command, result EvalResult) {
	w := cmd.ErrOrStderr()
	for _, e := range result.Errors {
		fmt.Fprintf(w, "error: %s\n", formatFinding(e))
	}
	for _, e := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", formatFinding(e))
	}
}

func formatFinding(e EvalErrorData) string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	case e.Position > 0:
		return fmt.Sprintf("graphics %d: %s", e.Position, e.Message)
	}
	return e.Message
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	var src sourceOptions
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Evaluate a script and check its graphics without building",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, done, err := setup(root)
			if err != nil {
				return err
			}
			defer done()

			source, err := os.ReadFile(src.script)
			if err != nil {
				return err
			}
			region, err := newRegion(cfg, src.mesh)
			if err != nil {
				return err
			}
			defer region.Close()

			registry := appearance.NewRegistry()
			if err := cfg.Tessellation.Apply(registry); err != nil {
				return err
			}
			engine := script.NewEngine(region, gobject.NewArena(), registry)
			list, evalErrs, err := engine.Evaluate(string(source))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(evalErrs) > 0 {
				for _, e := range evalErrs {
					fmt.Fprintf(out, "error: %s\n", e.Error())
				}
				return fmt.Errorf("%s: %d script errors", src.script, len(evalErrs))
			}
			for _, g := range list.Graphics() {
				fmt.Fprintln(out, g.Summary())
			}
			findings := graphics.Validate(list)
			for _, f := range findings {
				fmt.Fprintln(out, f.Error())
			}
			if graphics.HasErrors(findings) {
				return fmt.Errorf("%s: invalid graphics", src.script)
			}
			return nil
		},
	}
	src.bind(cmd)
	return cmd
}

// newRegion generates the mesh named by spec with the fields scripts can
// refer to: coordinates, one component field per axis and radius.
func newRegion(cfg *config.Config, spec string) (*femesh.Region, error) {
	counts, err := femesh.ParseGrid(spec)
	if err != nil {
		return nil, err
	}
	region, err := femesh.NewRegion("mesh", cfg.RegionOptions()...)
	if err != nil {
		return nil, err
	}
	coords, err := region.Grid(counts...)
	if err != nil {
		region.Close()
		return nil, err
	}
	for i, axis := range []string{"x", "y", "z"}[:len(counts)] {
		if _, err := region.NewComponentField(axis, coords, i); err != nil {
			region.Close()
			return nil, err
		}
	}
	if _, err := region.NewMagnitudeField("radius", coords); err != nil {
		region.Close()
		return nil, err
	}
	return region, nil
}
