package rpath

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
)

// LdSoConf is the loader configuration that lists the directories baked
// into ld.so.cache.
const LdSoConf = "/etc/ld.so.conf"

// ReadLdSoConf returns the directories listed by the ld.so.conf under
// root, following include lines in order. Paths in the result are as
// written in the files, without root. A missing ld.so.conf yields no
// directories and no error.
func ReadLdSoConf(root string) ([]string, error) {
	c := &confReader{
		root:    root,
		visited: mapset.NewSet[string](),
	}

	if err := c.read(LdSoConf); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	return c.dirs, nil
}

type confReader struct {
	root    string
	visited mapset.Set[string]
	dirs    []string
}

func (c *confReader) read(name string) error {
	if !c.visited.Add(name) {
		return nil
	}

	f, err := os.Open(filepath.Join(c.root, name))
	if err != nil {
		return err
	}

	defer f.Close()

	sc := bufio.NewScanner(f)

	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ':' || r == ','
		})

		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "include":
			for _, pattern := range fields[1:] {
				if err := c.include(name, pattern); err != nil {
					return err
				}
			}
		case "hwcap":
		default:
			c.dirs = append(c.dirs, fields...)
		}
	}

	return errors.Wrapf(sc.Err(), "reading %s", name)
}

// include reads every file matching pattern, which is relative to the
// directory of the including file unless absolute.
func (c *confReader) include(from, pattern string) error {
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(filepath.Dir(from), pattern)
	}

	matches, err := filepath.Glob(filepath.Join(c.root, pattern))
	if err != nil {
		return errors.Wrapf(err, "bad include %q in %s", pattern, from)
	}

	for _, m := range matches {
		rel, err := filepath.Rel(c.root, m)
		if err != nil {
			return err
		}

		if err := c.read(string(filepath.Separator) + rel); err != nil {
			return err
		}
	}

	return nil
}
