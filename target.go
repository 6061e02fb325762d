// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package quickextract

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"
)

// Target specifies all function that are needed to be implemented to extract contents from an archive
type Target interface {
	// CreateFile creates a file at the specified path with src as content. The mode parameter is the file mode that
	// should be set on the file. If the file already exists and overwrite is false, an error wrapping
	// [fs.ErrExist] is returned and the existing file is left untouched. If overwrite is true, an existing file
	// or symlink is removed and replaced by a new file, so links are never written through. The size of the file should not exceed
	// maxSize. The number of bytes written is returned, also along with an error. If maxSize < 0, the file size
	// is not limited.
	CreateFile(path string, src io.Reader, mode fs.FileMode, overwrite bool, maxSize int64) (int64, error)

	// CreateDir creates a directory and all missing parents at the specified path with the specified mode. If
	// the directory already exists, nothing is done.
	CreateDir(path string, mode fs.FileMode) error

	// Lstat see docs for os.Lstat. Main purpose is to check if an extraction target already exists.
	Lstat(path string) (fs.FileInfo, error)

	// Stat see docs for os.Stat. Main purpose is to check if a directory exists, following symlinks.
	Stat(path string) (fs.FileInfo, error)

	// Chmod see docs for os.Chmod. Main purpose is to set the file mode of an extracted file.
	Chmod(name string, mode fs.FileMode) error

	// Lchtimes see docs for os.Lchtimes. Main purpose is to set the file times of an extracted file.
	Lchtimes(name string, atime, mtime time.Time) error
}

// resolvePath joins the entry name with the destination root. An error wrapping
// errInvalidPath is returned for names the filesystem cannot represent, an
// error wrapping errBadPath for names that leave the root. The root itself
// is only a valid result for directory entries.
func resolvePath(root string, name string, isDir bool) (string, error) {
	if err := checkEntryName(name); err != nil {
		return "", err
	}

	path := filepath.Join(root, filepath.FromSlash(name))

	// get relative path from root to the new target
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errBadPath, err)
	}
	if rel == "." {
		if isDir {
			return path, nil
		}
		return "", fmt.Errorf("%w: file entry without name", errInvalidPath)
	}
	if !filepath.IsLocal(rel) {
		return "", errBadPath
	}
	return path, nil
}

// checkEntryName checks every segment of the slash separated name against
// the naming restrictions of the current platform.
func checkEntryName(name string) error {
	for _, segment := range strings.Split(name, "/") {
		// empty segments, "." and ".." are resolved by filepath.Join
		if segment == "" || segment == "." || segment == ".." {
			continue
		}
		for _, r := range namingRestrictions {
			if r.Regex.MatchString(segment) {
				return fmt.Errorf("%w: %s (%s)", errInvalidPath, r.RestrictionName, segment)
			}
		}
	}
	return nil
}

// nameRestriction is a struct that contains the name of the restriction and the regex to check for it
type nameRestriction struct {
	RestrictionName string
	Regex           *regexp.Regexp
}

// namingRestrictions is a list of restrictions for path segments, depending on the operating system
var namingRestrictions []nameRestriction

// init prepares the filename restriction regex
func init() {
	namingRestrictions = []nameRestriction{
		{"maximum length 255", regexp.MustCompile(`^.{256,}$`)},
		{"exclude line break, feed and tab", regexp.MustCompile(`[\x0a\x0d\x09]`)},
		{"null byte", regexp.MustCompile(`\x00`)},
	}

	if runtime.GOOS != "windows" {
		return
	}

	// regex with invalid windows filesystem characters, excluding control characters, and the following characters: <>:"\\|?*
	// https://docs.microsoft.com/en-us/windows/win32/fileio/naming-a-file
	namingRestrictions = append(namingRestrictions, nameRestriction{
		"invalid characters (windows)", regexp.MustCompile(`[\x00-\x1f<>:"\\|?*]`),
	})

	// known reserved names on windows, "(?i)" is case-insensitive
	namingRestrictions = append(namingRestrictions,
		nameRestriction{"reserved name", regexp.MustCompile(`^(?i)(CON|PRN|AUX|NUL)(\..*)?$`)},
		nameRestriction{"reserved name", regexp.MustCompile(`^(?i)(COM|LPT)[0-9]+(\..*)?$`)},
		nameRestriction{"trailing dot or space", regexp.MustCompile(`[\s.]$`)},
	)
}
