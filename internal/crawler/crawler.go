package crawler

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultIgnoredDirs are directory names that never hold project
// sources worth scanning.
var DefaultIgnoredDirs = []string{".git", "venv", ".venv", "node_modules", "__pycache__", ".tox", "testdata"}

// Crawler scans directories for Python source files.
type Crawler struct {
	ignored []string
}

// NewCrawler creates a new crawler instance. With no arguments it
// ignores the usual non-source directories.
func NewCrawler(ignored ...string) *Crawler {
	if len(ignored) == 0 {
		ignored = DefaultIgnoredDirs
	}
	return &Crawler{ignored: ignored}
}

// ScanDir walks the root directory and streams every Python source file
// to the callback, in lexical walk order. Test modules are skipped.
func (c *Crawler) ScanDir(root string, onFile func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !isSourceFile(d.Name()) {
			return nil
		}

		onFile(path)
		return nil
	})
}

// Expand resolves a mixed list of file and directory inputs into an
// ordered, deduplicated list of Python source paths. Directories are
// scanned recursively; file paths pass through unchecked, so a missing
// file is reported by whoever reads it rather than failing the whole
// expansion.
func (c *Crawler) Expand(inputs []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		paths = append(paths, path)
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err == nil && info.IsDir() {
			if err := c.ScanDir(input, add); err != nil {
				return nil, err
			}
			continue
		}
		add(input)
	}
	return paths, nil
}

func isSourceFile(name string) bool {
	if !strings.HasSuffix(name, ".py") {
		return false
	}
	return !strings.HasPrefix(name, "test_") && !strings.HasSuffix(name, "_test.py")
}
