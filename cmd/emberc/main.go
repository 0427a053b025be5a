// Command emberc drives a compilation: it loads a target/build
// configuration, assembles the in-memory program a front end would
// otherwise hand it, and runs that program through the checker, MIR
// lowerer, drop expander, splitter, and native emitter in order.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"forge.dev/emberc/internal/buildlog"
	"forge.dev/emberc/internal/config"
	"forge.dev/emberc/internal/diagnostics"
	"forge.dev/emberc/internal/program"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "emberc",
		Short: "Compile a program to native object files",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "emberc.toml", "path to the build configuration")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	root.AddCommand(newBuildCmd())
	return root
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Run the full pipeline and write object files to the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := logrus.InfoLevel
			if verbose {
				level = logrus.DebugLevel
			}
			log := buildlog.New(os.Stderr, level)

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg.CompiledAt = time.Now()

			// Parsing source into HIR/a symbol table is an external
			// collaborator (spec.md §1); program.Demo stands in for that
			// front end's output until one is wired up.
			prog := program.Demo()

			start := time.Now()
			result, err := runBuild(cmd.Context(), cfg, log, prog)
			if err != nil {
				return err
			}

			hasErrors := false
			for _, d := range result.Diags {
				entry := log.Phase("diagnostics", d.Module)
				if d.Severity == diagnostics.SeverityError {
					hasErrors = true
					entry.Error(d.String())
				} else {
					entry.Warn(d.String())
				}
			}
			if hasErrors {
				return fmt.Errorf("build failed with %d diagnostic(s)", len(result.Diags))
			}

			for _, r := range result.Objects {
				status := "emitted"
				if r.Cached {
					status = "cached"
				}
				fmt.Printf("%s\t%s\t%s\n", status, r.Module.Name, r.Path)
			}
			log.Phase("build", "*").WithField("duration", time.Since(start)).Info("build complete")
			return nil
		},
	}
}
