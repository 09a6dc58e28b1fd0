package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// DirSource scans a directory on the local filesystem.
//
// Symlinks to regular files are listed. Symlinks to directories are not
// followed, so the walk cannot cycle.
type DirSource struct {
	Root string
}

func NewDirSource(root string) *DirSource {
	return &DirSource{Root: root}
}

type pendingDir struct {
	path    string
	dirname string
}

func (s *DirSource) Scan(ctx context.Context) ([]string, error) {
	info, err := os.Stat(s.Root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", s.Root)
	}

	var refs []string
	stack := []pendingDir{{path: s.Root}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir.path)
		if err != nil {
			return nil, fmt.Errorf("read dir %q: %w", dir.path, err)
		}

		// ReadDir sorts by name; push subdirectories in reverse so they pop in order.
		var subdirs []pendingDir
		for _, entry := range entries {
			name := entry.Name()
			if !utf8.ValidString(name) {
				return nil, fmt.Errorf("invalid UTF-8 in file name %q under %q", name, dir.path)
			}
			ref := joinRef(dir.dirname, encodeSegment(name))
			full := filepath.Join(dir.path, name)

			switch mode := entry.Type(); {
			case mode.IsDir():
				subdirs = append(subdirs, pendingDir{path: full, dirname: ref})
			case mode.IsRegular():
				refs = append(refs, ref)
			case mode&fs.ModeSymlink != 0:
				target, err := os.Stat(full)
				if err != nil {
					// dangling link
					continue
				}
				if target.Mode().IsRegular() {
					refs = append(refs, ref)
				}
			}
		}
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	return refs, nil
}
