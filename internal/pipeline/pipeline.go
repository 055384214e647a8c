// SPDX-License-Identifier: MPL-2.0

// Package pipeline wires discovery, coalescing, the diagnostic reporter,
// satisfaction filtering, hoist planning, installation, symlink repair,
// and post-install hooks into the single sequential run the CLI invokes,
// honoring the phase-ordering barriers and advisory/fatal error policy
// the resolution engine's design specifies.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anvilhoist/monohoist/internal/coalesce"
	"github.com/anvilhoist/monohoist/internal/discovery"
	"github.com/anvilhoist/monohoist/internal/fsops"
	"github.com/anvilhoist/monohoist/internal/graph"
	"github.com/anvilhoist/monohoist/internal/hoist"
	"github.com/anvilhoist/monohoist/internal/installer"
	"github.com/anvilhoist/monohoist/internal/linkrepair"
	"github.com/anvilhoist/monohoist/internal/manifest"
	"github.com/anvilhoist/monohoist/internal/model"
	"github.com/anvilhoist/monohoist/internal/posthook"
	"github.com/anvilhoist/monohoist/internal/report"
	"github.com/anvilhoist/monohoist/internal/satisfy"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Options configures one pipeline run; it is the CLI layer's resolved
// internal/config.Config reshaped for the pipeline's own vocabulary.
type Options struct {
	ProjectRoot         string
	ModulesFolder       string
	NoLink              bool
	LinkOnly            bool
	Cleanup             bool
	DependencyCheckOnly bool
	TrustLocalModules   bool
	NoHoistRules        []model.NoHoistRule
	Production          bool
}

// Result carries everything a caller might report after a run.
type Result struct {
	Report report.Report
	Graph  graph.DependencyGraph
	Plan   model.PlacementPlan
}

// Run executes the pipeline. A returned *UncriticalError means the run
// stopped for an expected reason (no modules folder, started outside a
// project root) and the caller should exit 0, not 1 -- see ExitCode.
func Run(ctx context.Context, fs fsops.Filesystem, inst installer.Installer, logger *log.Logger, opts Options) (Result, error) {
	if _, err := fs.Stat(filepath.Join(opts.ProjectRoot, opts.ModulesFolder)); err != nil {
		logger.Info("modules folder not found, nothing to do", "folder", opts.ModulesFolder)
		return Result{}, &UncriticalError{
			Reason: fmt.Sprintf("modules folder %q not found under %s", opts.ModulesFolder, opts.ProjectRoot),
		}
	}

	crawler := discovery.New(fs, opts.Production, 0)
	set, err := crawler.Discover(ctx, opts.ProjectRoot, opts.ModulesFolder)
	if err != nil {
		var mErr *manifest.ManifestError
		if errors.As(err, &mErr) && os.IsNotExist(mErr.Err) {
			logger.Info("no manifest found at project root", "path", opts.ProjectRoot)
			return Result{}, &UncriticalError{
				Reason: fmt.Sprintf("no manifest at %s: started outside project root?", opts.ProjectRoot),
			}
		}
		return Result{}, err
	}

	if opts.Cleanup {
		if err := cleanupNodeModules(fs, set.Modules, logger); err != nil {
			return Result{}, err
		}
		set, err = crawler.Discover(ctx, opts.ProjectRoot, opts.ModulesFolder)
		if err != nil {
			return Result{}, err
		}
	}

	if opts.LinkOnly {
		repairLinks(fs, set, opts, logger)
		return Result{}, nil
	}

	requests := coalesce.Coalesce(set.Modules)
	rep := report.Generate(requests, set.Modules, opts.TrustLocalModules)
	g := graph.Build(requests)
	logReport(logger, rep)

	if opts.DependencyCheckOnly {
		return Result{Report: rep, Graph: g}, nil
	}

	survivors := satisfy.Filter(requests, set.Modules, set.InstalledDependencies, satisfy.Options{
		LinkLocalModules:    !opts.NoLink,
		TrustLocalNonSemver: opts.TrustLocalModules,
	})

	flat := survivors.Flatten(func(name, rng string) bool {
		return hoist.IsHoistable(model.DependencyRequest{Name: name, VersionRange: rng}, opts.NoHoistRules)
	})

	plan, decisions, err := hoist.Plan(flat, set.InstalledDependencies, opts.NoHoistRules, opts.ProjectRoot)
	if err != nil {
		return Result{}, err
	}
	logDecisions(logger, decisions)

	if err := install(ctx, inst, plan, logger); err != nil {
		return Result{}, err
	}

	repairLinks(fs, set, opts, logger)
	runPostinstallHooks(ctx, set.Modules, opts.ProjectRoot, logger)

	return Result{Report: rep, Graph: g, Plan: plan}, nil
}

// install materializes every planned target concurrently; a non-zero
// installer exit aborts the whole phase, per §5's "all installer
// invocations complete before symlink repair begins" ordering -- a
// partial, failed install must not proceed to repair stale links.
func install(ctx context.Context, inst installer.Installer, plan model.PlacementPlan, logger *log.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	for target, reqs := range plan {
		target, reqs := target, reqs
		g.Go(func() error {
			identifiers := make([]string, len(reqs))
			for i, r := range reqs {
				identifiers[i] = r.Identifier()
			}
			logger.Info("installing", "target", target, "count", len(identifiers))
			return inst.Install(gctx, target, identifiers)
		})
	}
	return g.Wait()
}

// repairLinks runs symlink repair and logs its tolerated failures; it
// never returns an error, matching §4.6's "log and continue" policy.
func repairLinks(fs fsops.Filesystem, set model.ModuleSet, opts Options, logger *log.Logger) {
	errs, missing := linkrepair.Repair(fs, set.Modules, set.InstalledDependencies, linkrepair.Options{
		LinkLocalModules:    !opts.NoLink,
		TrustLocalNonSemver: opts.TrustLocalModules,
	})
	for _, e := range errs {
		logger.Error("symlink repair failed", "error", e)
	}
	for _, m := range missing {
		logger.Error("no source found for dependency", "module", m.Module.FullModulePath(), "name", m.Name, "range", m.Range)
	}
}

// runPostinstallHooks runs each local module's postinstall command. The
// root project is skipped by path equality: it participates in
// discovery, coalescing, and reporting as a module in its own right, but
// running its own postinstall from within this pipeline would be
// circular (the root project's postinstall is typically what invokes
// this tool in the first place).
func runPostinstallHooks(ctx context.Context, modules []model.ModuleInfo, projectRoot string, logger *log.Logger) {
	for _, m := range modules {
		if m.FullModulePath() == filepath.Clean(projectRoot) {
			continue
		}
		if m.PostinstallCommand == "" {
			continue
		}
		result, err := posthook.Run(ctx, m.FullModulePath(), m.PostinstallCommand)
		if err != nil {
			logger.Error("postinstall hook failed", "module", m.Name, "error", err)
			continue
		}
		if result.ExitCode != 0 {
			logger.Warn("postinstall hook exited non-zero", "module", m.Name, "exitCode", result.ExitCode)
		}
	}
}

func cleanupNodeModules(fs fsops.Filesystem, modules []model.ModuleInfo, logger *log.Logger) error {
	for _, m := range modules {
		target := filepath.Join(m.FullModulePath(), "node_modules")
		logger.Info("cleanup: removing node_modules", "path", target)
		if err := fs.RemoveAll(target); err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
	}
	return nil
}

func logReport(logger *log.Logger, r report.Report) {
	for _, issue := range r.NonOptimalDependencies {
		logger.Warn("non-optimal dependency setup", "name", issue.Name, "primary", issue.Primary)
	}
	for _, issue := range r.NonOptimalLocalModules {
		logger.Warn("non-optimal local-module usage", "name", issue.Name, "version", issue.LocalVersion)
	}
}

func logDecisions(logger *log.Logger, decisions []hoist.Decision) {
	for _, d := range decisions {
		switch {
		case d.NonSemver:
			logger.Warn("non-semver range placed per requester", "identifier", d.Request.Identifier(), "requesters", d.Request.RequestedBy)
		case d.NoHoistHit != nil:
			logger.Info("no-hoist rule matched", "identifier", d.Request.Identifier(), "rule", d.NoHoistHit.NameGlob, "requesters", d.Request.RequestedBy)
		}
	}
}
