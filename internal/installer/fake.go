// SPDX-License-Identifier: MPL-2.0

package installer

import "context"

// Fake is an in-memory Installer for tests that exercise the pipeline
// without shelling out. Calls records each invocation in order; FailFor
// maps a target to an error Install should return for that target.
type Fake struct {
	Calls   []FakeCall
	FailFor map[string]error
}

// FakeCall records one Install invocation.
type FakeCall struct {
	Target      string
	Identifiers []string
}

// NewFake returns an empty Fake installer.
func NewFake() *Fake {
	return &Fake{FailFor: map[string]error{}}
}

func (f *Fake) Install(_ context.Context, target string, identifiers []string) error {
	f.Calls = append(f.Calls, FakeCall{Target: target, Identifiers: identifiers})
	if err, ok := f.FailFor[target]; ok {
		return err
	}
	return nil
}
