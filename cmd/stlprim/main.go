// Command stlprim builds STL files from scene descriptions and inspects
// existing STL files.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/stlprim/pkg/config"
	"github.com/chazu/stlprim/pkg/engine"
	"github.com/chazu/stlprim/pkg/scene"
	"github.com/chazu/stlprim/pkg/solid"
	"github.com/chazu/stlprim/pkg/stl"
	"github.com/chazu/stlprim/pkg/surface"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:          "stlprim",
		Short:        "Build STL files from parametric boxes and cylinders",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"TOML settings file (default "+config.DefaultPath+" if present)")

	loadConfig := func() (config.Config, error) {
		return config.Load(cfgPath)
	}

	rootCmd.AddCommand(
		newBuildCmd(loadConfig),
		newWatchCmd(loadConfig),
		newInspectCmd(),
		newVerifyCmd(loadConfig),
	)
	return rootCmd
}

func newBuildCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var (
		outPath string
		ascii   bool
		name    string
	)
	cmd := &cobra.Command{
		Use:   "build SCENE",
		Short: "Evaluate a scene file and write all parts into one STL model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ascii") {
				cfg.Output.ASCII = ascii
			}
			if name != "" {
				cfg.Output.ModelName = name
			}

			return buildScene(cmd.OutOrStdout(), args[0], outPath, cfg)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output STL file")
	cmd.Flags().BoolVar(&ascii, "ascii", false, "write ASCII STL instead of binary")
	cmd.Flags().StringVar(&name, "name", "", "model name written to the STL header")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE.stl",
		Short: "Print the facet count and bounding box of an STL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			im := stl.NewImporter()
			if err := im.Load(args[0]); err != nil {
				return err
			}
			m := solid.NewModel(im.Facets())
			min, max := m.Bounds()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "File: %s\n", args[0])
			if im.Name() != "" {
				fmt.Fprintf(w, "Name: %s\n", im.Name())
			}
			fmt.Fprintf(w, "Triangles: %d\n", len(im.Facets()))
			fmt.Fprintf(w, "Bounding box: (%g, %g, %g) - (%g, %g, %g)\n",
				min.X, min.Y, min.Z, max.X, max.Y, max.Z)
			return nil
		},
	}
}

func newVerifyCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var tolerance float64
	cmd := &cobra.Command{
		Use:   "verify SCENE",
		Short: "Check every box and cylinder against its exact surface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("tolerance") {
				cfg.Verify.Tolerance = tolerance
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			sc, err := evaluateFile(args[0], cfg)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			failed := 0
			for _, p := range sc.Parts() {
				err := surface.Verify(p.Primitive, cfg.Verify.Tolerance)
				switch {
				case errors.Is(err, surface.ErrNoReference):
					fmt.Fprintf(w, "%-20s %-8s skipped\n", p.Name, p.Primitive.Kind())
				case err != nil:
					failed++
					fmt.Fprintf(w, "%-20s %-8s FAIL %v\n", p.Name, p.Primitive.Kind(), err)
				default:
					fmt.Fprintf(w, "%-20s %-8s ok\n", p.Name, p.Primitive.Kind())
				}
			}
			if failed > 0 {
				return fmt.Errorf("verify: %d of %d parts off their surface", failed, sc.Len())
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&tolerance, "tolerance", surface.DefaultTolerance,
		"allowed deviation relative to each part's bounding box diagonal")
	return cmd
}

// buildScene evaluates scenePath and saves the result to outPath.
func buildScene(w io.Writer, scenePath, outPath string, cfg config.Config) error {
	sc, err := evaluateFile(scenePath, cfg)
	if err != nil {
		return err
	}
	for _, warn := range sc.Check() {
		log.Printf("build: warning: %s", warn)
	}
	if err := sc.Save(outPath, cfg.Output.ModelName, cfg.Output.ASCII); err != nil {
		return err
	}
	log.Printf("build: wrote %d parts, %d triangles to %s", sc.Len(), sc.TriangleCount(), outPath)
	fmt.Fprintf(w, "%s: %d triangles\n", outPath, sc.TriangleCount())
	return nil
}

// evaluateFile runs the scene at path. Relative (model ...) paths resolve
// against the scene's directory.
func evaluateFile(path string, cfg config.Config) (*scene.Scene, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	eng := engine.NewEngine(
		engine.WithCylinderResolution(cfg.Cylinder.Resolution),
		engine.WithModelDir(filepath.Dir(path)),
	)
	sc, evalErrs, err := eng.Evaluate(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(evalErrs) > 0 {
		msgs := make([]string, 0, len(evalErrs))
		for _, e := range evalErrs {
			msgs = append(msgs, e.Error())
		}
		return nil, fmt.Errorf("%s: %s", path, strings.Join(msgs, "; "))
	}
	return sc, nil
}
