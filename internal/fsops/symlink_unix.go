// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package fsops

import "os"

// Symlink creates a plain symbolic link. POSIX filesystems need no
// distinct directory-link mode.
func (Default) Symlink(target, newPath string) error {
	return os.Symlink(target, newPath)
}
