// SPDX-License-Identifier: MPL-2.0

// Package config loads monohoist's settings: the local-modules folder
// name, no-hoist rules, the CLI loglevel, the local-module-trust flag,
// and their environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/anvilhoist/monohoist/internal/model"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix viper binds MONOHOIST_* environment
	// variables under (e.g. MONOHOIST_LOGLEVEL).
	EnvPrefix = "MONOHOIST"

	// DefaultModulesFolder is used when no positional argument is given.
	DefaultModulesFolder = "modules"

	// DefaultLogLevel is used when --loglevel is not set.
	DefaultLogLevel = "info"
)

// Config is the resolved settings for one pipeline run.
type Config struct {
	ModulesFolder       string
	NoLink              bool
	LinkOnly            bool
	Cleanup             bool
	DependencyCheckOnly bool
	TrustLocalModules   bool
	LogLevel            string
	NoHoistRules        []model.NoHoistRule
	Production          bool
}

// Options carries the values the CLI layer parsed from flags before
// config resolves them against defaults and the environment.
type Options struct {
	ModulesFolder       string
	NoLink              bool
	LinkOnly            bool
	Cleanup             bool
	DependencyCheckOnly bool
	TrustLocalModules   bool
	LogLevel            string
	NoHoistRaw          []string // "name[@range]" entries from repeated --no-hoist flags
}

// Load resolves a Config from CLI-provided options, viper defaults, and
// environment variables (NODE_ENV=production and MONOHOIST_* overrides).
func Load(opts Options) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("modules_folder", DefaultModulesFolder)
	v.SetDefault("loglevel", DefaultLogLevel)
	v.SetDefault("no_link", false)
	v.SetDefault("link_only", false)
	v.SetDefault("cleanup", false)
	v.SetDefault("dependency_check_only", false)
	v.SetDefault("trust_local_modules", false)

	if opts.ModulesFolder != "" {
		v.Set("modules_folder", opts.ModulesFolder)
	}
	if opts.LogLevel != "" {
		v.Set("loglevel", opts.LogLevel)
	}
	v.Set("no_link", opts.NoLink || v.GetBool("no_link"))
	v.Set("link_only", opts.LinkOnly || v.GetBool("link_only"))
	v.Set("cleanup", opts.Cleanup || v.GetBool("cleanup"))
	v.Set("dependency_check_only", opts.DependencyCheckOnly || v.GetBool("dependency_check_only"))
	v.Set("trust_local_modules", opts.TrustLocalModules || v.GetBool("trust_local_modules"))

	rules, err := parseNoHoistRules(opts.NoHoistRaw)
	if err != nil {
		return Config{}, err
	}

	return Config{
		ModulesFolder:       v.GetString("modules_folder"),
		NoLink:              v.GetBool("no_link"),
		LinkOnly:            v.GetBool("link_only"),
		Cleanup:             v.GetBool("cleanup"),
		DependencyCheckOnly: v.GetBool("dependency_check_only"),
		TrustLocalModules:   v.GetBool("trust_local_modules"),
		LogLevel:            v.GetString("loglevel"),
		NoHoistRules:        rules,
		Production:          strings.EqualFold(os.Getenv("NODE_ENV"), "production"),
	}, nil
}

// parseNoHoistRules parses repeated --no-hoist name[@range] values into
// NoHoistRule records.
func parseNoHoistRules(raw []string) ([]model.NoHoistRule, error) {
	rules := make([]model.NoHoistRule, 0, len(raw))
	for _, entry := range raw {
		if entry == "" {
			return nil, fmt.Errorf("--no-hoist requires a non-empty name[@range] value")
		}
		nameGlob, versionRange := splitNoHoistEntry(entry)
		if nameGlob == "" {
			return nil, fmt.Errorf("--no-hoist value %q has an empty name", entry)
		}
		rules = append(rules, model.NoHoistRule{NameGlob: nameGlob, VersionRange: versionRange})
	}
	return rules, nil
}

// splitNoHoistEntry splits "name[@range]" on the "@" that separates name
// from range, skipping a leading "@" that marks a scoped package name
// ("@acme/widgets@^1.0.0" splits into "@acme/widgets" and "^1.0.0").
func splitNoHoistEntry(entry string) (nameGlob, versionRange string) {
	searchFrom := 0
	if strings.HasPrefix(entry, "@") {
		searchFrom = 1
	}
	idx := strings.Index(entry[searchFrom:], "@")
	if idx == -1 {
		return entry, ""
	}
	idx += searchFrom
	return entry[:idx], entry[idx+1:]
}
