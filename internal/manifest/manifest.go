// SPDX-License-Identifier: MPL-2.0

// Package manifest reads a module's package manifest into an
// internal/model.ModuleInfo record. It merges the three dependency kinds
// package.json distinguishes into the single map the resolution engine
// consumes, and normalizes the three shapes the "bin" field may take.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anvilhoist/monohoist/internal/model"
)

// FileName is the manifest file name read from each module directory.
const FileName = "package.json"

// ErrManifest is the sentinel wrapped by every *ManifestError.
var ErrManifest = errors.New("manifest error")

// ManifestError reports a manifest that could not be read or parsed. The
// message always includes Path, per the manifest reader's contract.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error { return ErrManifest }

// rawManifest mirrors the subset of package.json fields the engine cares
// about. Bin is left as raw JSON because it may be a string or an object.
type rawManifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`

	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`

	Scripts struct {
		Postinstall string `json:"postinstall"`
	} `json:"scripts"`

	Bin json.RawMessage `json:"bin"`
}

// Read parses the manifest at join(moduleDir, "package.json") and returns
// the ModuleInfo it describes. location is the folder enclosing the
// module directory; realFolderName is the module directory's own name.
// production suppresses the development-dependency overlay, matching
// NODE_ENV=production.
func Read(location, realFolderName string, production bool) (model.ModuleInfo, error) {
	path := filepath.Join(location, realFolderName, FileName)
	return readAt(path, location, realFolderName, production)
}

func readAt(path, location, realFolderName string, production bool) (model.ModuleInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ModuleInfo{}, &ManifestError{Path: path, Err: err}
	}

	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.ModuleInfo{}, &ManifestError{Path: path, Err: err}
	}

	deps := make(map[string]string, len(raw.Dependencies)+len(raw.PeerDependencies))
	for name, rng := range raw.Dependencies {
		deps[name] = rng
	}
	if !production {
		for name, rng := range raw.DevDependencies {
			deps[name] = rng
		}
	}
	for name, rng := range raw.PeerDependencies {
		deps[name] = rng
	}

	isScoped := strings.HasPrefix(raw.Name, "@")
	canonical := raw.Name

	bin, err := parseBin(raw.Bin, raw.Name)
	if err != nil {
		return model.ModuleInfo{}, &ManifestError{Path: path, Err: err}
	}

	return model.ModuleInfo{
		Location:            location,
		RealFolderName:      realFolderName,
		CanonicalFolderName: canonical,
		Name:                raw.Name,
		Version:             raw.Version,
		Dependencies:        deps,
		PostinstallCommand:  raw.Scripts.Postinstall,
		BinEntries:          bin,
		IsScoped:            isScoped,
	}, nil
}

// parseBin normalizes package.json's "bin" field: absent yields an empty
// map; a bare string yields {commandName: string}, where commandName is
// the package name with any "@scope/" prefix stripped; a mapping passes
// through unchanged.
func parseBin(raw json.RawMessage, pkgName string) (map[string]string, error) {
	if len(raw) == 0 {
		return map[string]string{}, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return map[string]string{unscopedName(pkgName): asString}, nil
	}

	var asMap map[string]string
	if err := json.Unmarshal(raw, &asMap); err == nil {
		return asMap, nil
	}

	return nil, fmt.Errorf("bin field is neither a string nor an object")
}

// unscopedName returns the portion of a package name after the scope, if
// any ("@acme/widgets" -> "widgets"; "widgets" -> "widgets").
func unscopedName(name string) string {
	if idx := strings.Index(name, "/"); idx != -1 {
		return name[idx+1:]
	}
	return name
}
