// SPDX-License-Identifier: MPL-2.0

//go:build windows

package fsops

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anvilhoist/monohoist/internal/platform"
	"golang.org/x/sys/windows"
)

// NTFS reparse point constants used to create a directory junction. Windows
// resolves symlinks to directories unreliably without elevated privileges
// or developer mode, so directory links use junctions instead; junctions
// require an absolute, \??\-prefixed target and carry no support for
// relative paths.
const (
	reparseTagMountPoint = 0xA0000003
	fsctlSetReparsePoint = 0x000900A4
)

// Symlink creates a link at newPath pointing at target. Directories are
// linked with an NTFS junction; files fall back to os.Symlink. A scoped
// dependency's folder name (e.g. "@acme/widgets") still ends in a plain
// base name once joined under node_modules, so it is checked against
// Windows's reserved device names before either path is attempted.
func (Default) Symlink(target, newPath string) error {
	if base := filepath.Base(newPath); platform.IsWindowsReservedName(base) {
		return fmt.Errorf("%q is a reserved name on Windows, cannot link %s", base, newPath)
	}

	fi, err := os.Stat(target)
	if err != nil || !fi.IsDir() {
		return os.Symlink(target, newPath)
	}
	return createJunction(target, newPath)
}

func createJunction(target, newPath string) error {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolving junction target: %w", err)
	}

	if err := os.Mkdir(newPath, 0o777); err != nil {
		return fmt.Errorf("creating junction directory: %w", err)
	}

	handle, err := windows.CreateFile(
		windows.StringToUTF16Ptr(newPath),
		windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_OPEN_REPARSE_POINT|windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		_ = os.Remove(newPath)
		return fmt.Errorf("opening junction handle: %w", err)
	}
	defer windows.CloseHandle(handle)

	data := buildReparseBuffer(absTarget)
	var bytesReturned uint32
	err = windows.DeviceIoControl(
		handle,
		fsctlSetReparsePoint,
		&data[0],
		uint32(len(data)),
		nil,
		0,
		&bytesReturned,
		nil,
	)
	if err != nil {
		_ = os.Remove(newPath)
		return fmt.Errorf("setting reparse point: %w", err)
	}
	return nil
}

// buildReparseBuffer encodes a REPARSE_DATA_BUFFER describing a mount
// point (junction) whose substitute and print names both point at
// target, in the \??\ device-path form junctions require.
func buildReparseBuffer(target string) []byte {
	substitute := `\??\` + target
	print := target

	substUTF16 := windows.StringToUTF16(substitute)
	printUTF16 := windows.StringToUTF16(print)

	// Trim the implicit trailing NUL each StringToUTF16 call adds; the
	// path buffer is not itself NUL-terminated, only length-prefixed.
	substUTF16 = substUTF16[:len(substUTF16)-1]
	printUTF16 = printUTF16[:len(printUTF16)-1]

	substBytes := utf16ToBytes(substUTF16)
	printBytes := utf16ToBytes(printUTF16)

	pathBufferLen := len(substBytes) + 2 + len(printBytes) + 2
	reparseDataLen := 8 + 2 + 2 + pathBufferLen

	buf := make([]byte, 8+reparseDataLen)
	binary.LittleEndian.PutUint32(buf[0:4], reparseTagMountPoint)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(reparseDataLen))

	off := 8
	binary.LittleEndian.PutUint16(buf[off:off+2], 0) // SubstituteNameOffset
	binary.LittleEndian.PutUint16(buf[off+2:off+4], uint16(len(substBytes)))
	binary.LittleEndian.PutUint16(buf[off+4:off+6], uint16(len(substBytes)+2)) // PrintNameOffset
	binary.LittleEndian.PutUint16(buf[off+6:off+8], uint16(len(printBytes)))
	off += 8

	copy(buf[off:], substBytes)
	off += len(substBytes) + 2 // +2 for embedded NUL
	copy(buf[off:], printBytes)

	return buf
}

func utf16ToBytes(u []uint16) []byte {
	b := make([]byte, len(u)*2)
	for i, v := range u {
		binary.LittleEndian.PutUint16(b[i*2:], v)
	}
	return b
}
