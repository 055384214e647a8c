// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/anvilhoist/monohoist/internal/config"
	"github.com/anvilhoist/monohoist/internal/fsops"
	"github.com/anvilhoist/monohoist/internal/graph"
	"github.com/anvilhoist/monohoist/internal/installer"
	"github.com/anvilhoist/monohoist/internal/logging"
	"github.com/anvilhoist/monohoist/internal/manifest"
	"github.com/anvilhoist/monohoist/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	optNoLink              bool
	optLinkOnly            bool
	optCleanup             bool
	optDependencyCheckOnly bool
	optTrustLocalModules   bool
	optNoHoist             []string
	optLogLevel            string
)

var rootCmd = &cobra.Command{
	Use:   "monohoist [modules-folder]",
	Short: "Hoist shared dependencies across a monorepo's local modules",
	Long: `monohoist discovers the local modules under a monorepo, coalesces
their declared dependency ranges, hoists each unique dependency to the
shallowest folder every requester can resolve it from, installs what's
missing, and repairs each module's own node_modules via symlinks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRoot,
}

func init() {
	rootCmd.Flags().BoolVar(&optNoLink, "no-link", false, "never shadow a dependency with a sibling local module")
	rootCmd.Flags().BoolVar(&optLinkOnly, "link-only", false, "only repair symlinks, skip discovery's coalesce/install phases")
	rootCmd.Flags().BoolVar(&optCleanup, "cleanup", false, "remove every discovered node_modules before resolving")
	rootCmd.Flags().BoolVar(&optDependencyCheckOnly, "dependency-check-only", false, "report coalescing diagnostics and exit, without installing or linking")
	rootCmd.Flags().BoolVar(&optTrustLocalModules, "trust-local-modules", false, "accept a local module as the source for a non-semver dependency range")
	rootCmd.Flags().BoolVar(&optTrustLocalModules, "assume-local-modules-satisfy-non-semver-dependency-versions", false, "alias for --trust-local-modules")
	rootCmd.Flags().MarkHidden("assume-local-modules-satisfy-non-semver-dependency-versions")
	rootCmd.Flags().StringArrayVar(&optNoHoist, "no-hoist", nil, "name[@range] dependency to place per-requester instead of hoisting (repeatable)")
	rootCmd.Flags().StringVar(&optLogLevel, "loglevel", "", fmt.Sprintf("one of %v", logging.ValidLevels()))
}

// Execute runs the root command and maps its outcome to a process exit
// code, per the pipeline's uncritical/fatal distinction.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	modulesFolder := ""
	if len(args) == 1 {
		modulesFolder = args[0]
	}

	cfg, err := config.Load(config.Options{
		ModulesFolder:       modulesFolder,
		NoLink:              optNoLink,
		LinkOnly:            optLinkOnly,
		Cleanup:             optCleanup,
		DependencyCheckOnly: optDependencyCheckOnly,
		TrustLocalModules:   optTrustLocalModules,
		LogLevel:            optLogLevel,
		NoHoistRaw:          optNoHoist,
	})
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}

	projectRoot, err := os.Getwd()
	if err != nil {
		return err
	}

	inst := installer.NewExec(logger)
	result, runErr := pipeline.Run(cmd.Context(), fsops.New(), inst, logger, pipeline.Options{
		ProjectRoot:         projectRoot,
		ModulesFolder:       cfg.ModulesFolder,
		NoLink:              cfg.NoLink,
		LinkOnly:            cfg.LinkOnly,
		Cleanup:             cfg.Cleanup,
		DependencyCheckOnly: cfg.DependencyCheckOnly,
		TrustLocalModules:   cfg.TrustLocalModules,
		NoHoistRules:        cfg.NoHoistRules,
		Production:          cfg.Production,
	})

	if runErr != nil {
		var uncritical *pipeline.UncriticalError
		if errors.As(runErr, &uncritical) {
			logger.Info(uncritical.Error())
			os.Exit(pipeline.ExitCode(runErr))
		}
		var mErr *manifest.ManifestError
		if errors.As(runErr, &mErr) {
			logger.Error("manifest error", "path", mErr.Path, "error", mErr.Err)
		} else {
			logger.Error("resolution failed", "error", runErr)
		}
		os.Exit(pipeline.ExitCode(runErr))
	}

	if cfg.DependencyCheckOnly {
		fmt.Fprint(cmd.OutOrStdout(), graph.Render(result.Graph))
		logger.Info("dependency check complete", "issues", len(result.Report.NonOptimalDependencies)+len(result.Report.NonOptimalLocalModules))
	}

	return nil
}
