// SPDX-License-Identifier: MPL-2.0

// Package discovery recursively enumerates local modules and already
// installed artifacts rooted at a project, producing the model.ModuleSet
// the rest of the resolution engine consumes.
package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/anvilhoist/monohoist/internal/fsops"
	"github.com/anvilhoist/monohoist/internal/manifest"
	"github.com/anvilhoist/monohoist/internal/model"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// defaultMaxConcurrentReads bounds how many manifest files may be open at
// once across the whole crawl, regardless of how many directories are
// being scanned concurrently.
const defaultMaxConcurrentReads = 8

// Crawler discovers a ModuleSet starting from a project root.
type Crawler struct {
	fs         fsops.Filesystem
	production bool
	sem        *semaphore.Weighted
}

// New returns a Crawler. maxConcurrentReads <= 0 uses a sensible default.
func New(fs fsops.Filesystem, production bool, maxConcurrentReads int64) *Crawler {
	if maxConcurrentReads <= 0 {
		maxConcurrentReads = defaultMaxConcurrentReads
	}
	return &Crawler{fs: fs, production: production, sem: semaphore.NewWeighted(maxConcurrentReads)}
}

// Discover produces the ModuleSet rooted at location: the root project's
// own manifest, every local module under modulesFolderName (recursed for
// its own contribution), and every installed artifact found beneath any
// node_modules directory in the tree.
func (c *Crawler) Discover(ctx context.Context, location, modulesFolderName string) (model.ModuleSet, error) {
	root, err := c.readManifest(ctx, location, "")
	if err != nil {
		return model.ModuleSet{}, err
	}

	set, err := c.crawlChildren(ctx, location, modulesFolderName)
	if err != nil {
		return model.ModuleSet{}, err
	}

	set.Modules = append([]model.ModuleInfo{root}, set.Modules...)
	return set, nil
}

// crawlChildren scans location's node_modules and modulesFolderName
// children and recurses into each discovered local module for its own
// contribution. Sibling local modules are crawled concurrently.
func (c *Crawler) crawlChildren(ctx context.Context, location, modulesFolderName string) (model.ModuleSet, error) {
	var set model.ModuleSet

	installed, err := c.scanManifestChildren(ctx, filepath.Join(location, "node_modules"))
	if err != nil {
		return model.ModuleSet{}, err
	}
	set.InstalledDependencies = installed

	localModules, err := c.scanManifestChildren(ctx, filepath.Join(location, modulesFolderName))
	if err != nil {
		return model.ModuleSet{}, err
	}
	set.Modules = append(set.Modules, localModules...)

	childSets := make([]model.ModuleSet, len(localModules))
	g, gctx := errgroup.WithContext(ctx)
	for i, local := range localModules {
		i, local := i, local
		g.Go(func() error {
			childSet, err := c.crawlChildren(gctx, local.FullModulePath(), modulesFolderName)
			if err != nil {
				return err
			}
			childSets[i] = childSet
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.ModuleSet{}, err
	}

	for _, cs := range childSets {
		set.Modules = append(set.Modules, cs.Modules...)
		set.InstalledDependencies = append(set.InstalledDependencies, cs.InstalledDependencies...)
	}
	return set, nil
}

type manifestCandidate struct {
	location string
	name     string
}

// scanManifestChildren returns the parsed manifest of every immediate
// child of dir that has one, with scoped ("@scope") subfolders recursed
// exactly one extra level. Dotfile-prefixed entries and entries that
// stat as non-directories are filtered out silently, as is any entry
// simply missing a manifest; a present-but-malformed manifest is a real
// error and propagates.
func (c *Crawler) scanManifestChildren(ctx context.Context, dir string) ([]model.ModuleInfo, error) {
	entries, err := c.fs.Enumerate(dir)
	if err != nil {
		return nil, err
	}

	var candidates []manifestCandidate
	for _, e := range entries {
		if strings.HasPrefix(e.Name, ".") {
			continue
		}
		path := filepath.Join(dir, e.Name)
		info, err := c.fs.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}

		if strings.HasPrefix(e.Name, "@") {
			subEntries, err := c.fs.Enumerate(path)
			if err != nil {
				continue
			}
			for _, se := range subEntries {
				if strings.HasPrefix(se.Name, ".") {
					continue
				}
				subPath := filepath.Join(path, se.Name)
				subInfo, err := c.fs.Stat(subPath)
				if err != nil || !subInfo.IsDir() {
					continue
				}
				candidates = append(candidates, manifestCandidate{location: path, name: se.Name})
			}
			continue
		}

		candidates = append(candidates, manifestCandidate{location: dir, name: e.Name})
	}

	results := make([]model.ModuleInfo, len(candidates))
	present := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			info, err := c.readManifest(gctx, cand.location, cand.name)
			if err != nil {
				if isMissingManifest(err) {
					return nil
				}
				return err
			}
			results[i] = info
			present[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.ModuleInfo, 0, len(results))
	for i, ok := range present {
		if ok {
			out = append(out, results[i])
		}
	}
	return out, nil
}

// readManifest reads one manifest, bounded by the crawl-wide semaphore so
// the number of concurrently open manifest files stays fixed regardless
// of how many directories are being scanned at once.
func (c *Crawler) readManifest(ctx context.Context, location, name string) (model.ModuleInfo, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return model.ModuleInfo{}, err
	}
	defer c.sem.Release(1)
	return manifest.Read(location, name, c.production)
}

func isMissingManifest(err error) bool {
	var mErr *manifest.ManifestError
	if errors.As(err, &mErr) {
		return os.IsNotExist(mErr.Err)
	}
	return false
}
