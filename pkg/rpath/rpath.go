package rpath

import (
	"os"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"lab47.dev/dynelf/pkg/elfdyn"
)

// Source is anything that can list dynamic tags by type, such as an
// *elfdyn.Table.
type Source interface {
	TagsOf(tag elfdyn.Tag) ([]*elfdyn.TagView, error)
}

// Info is the library naming information declared by one object.
type Info struct {
	Soname  string
	Needed  []string
	RPath   []string
	RunPath []string
}

// Read collects DT_SONAME, DT_NEEDED, DT_RPATH and DT_RUNPATH from src.
// Search paths are split on ':' with empty elements dropped.
func Read(src Source) (*Info, error) {
	var info Info

	needed, err := src.TagsOf(elfdyn.DT_NEEDED)
	if err != nil {
		return nil, errors.Wrapf(err, "reading DT_NEEDED")
	}

	for _, v := range needed {
		s, _ := v.Needed()
		info.Needed = append(info.Needed, string(s))
	}

	soname, err := src.TagsOf(elfdyn.DT_SONAME)
	if err != nil {
		return nil, errors.Wrapf(err, "reading DT_SONAME")
	}

	if len(soname) > 0 {
		s, _ := soname[0].Soname()
		info.Soname = string(s)
	}

	rpath, err := src.TagsOf(elfdyn.DT_RPATH)
	if err != nil {
		return nil, errors.Wrapf(err, "reading DT_RPATH")
	}

	for _, v := range rpath {
		s, _ := v.RPath()
		info.RPath = append(info.RPath, splitPath(string(s))...)
	}

	runpath, err := src.TagsOf(elfdyn.DT_RUNPATH)
	if err != nil {
		return nil, errors.Wrapf(err, "reading DT_RUNPATH")
	}

	for _, v := range runpath {
		s, _ := v.RunPath()
		info.RunPath = append(info.RunPath, splitPath(string(s))...)
	}

	return &info, nil
}

func splitPath(s string) []string {
	var out []string

	for _, dir := range strings.Split(s, ":") {
		if dir != "" {
			out = append(out, dir)
		}
	}

	return out
}

// SearchPath is the declared search path: DT_RUNPATH when present, the
// deprecated DT_RPATH otherwise.
func (i *Info) SearchPath() []string {
	if len(i.RunPath) > 0 {
		return i.RunPath
	}

	return i.RPath
}

// ExpandOrigin replaces $ORIGIN and ${ORIGIN} with origin, the directory
// holding the object.
func ExpandOrigin(dir, origin string) string {
	dir = strings.ReplaceAll(dir, "${ORIGIN}", origin)
	return strings.ReplaceAll(dir, "$ORIGIN", origin)
}

// Library is the outcome of looking up one DT_NEEDED name.
type Library struct {
	Name  string
	Path  string
	Found bool
}

// Resolver finds needed libraries the way the dynamic loader orders its
// search: DT_RPATH (only without DT_RUNPATH), LibraryPath, DT_RUNPATH and
// then SystemDirs.
type Resolver struct {
	LibraryPath []string
	SystemDirs  []string

	// Exists reports whether a candidate path is usable. Defaults to a
	// regular file check.
	Exists func(path string) bool

	Logger hclog.Logger
}

func (r *Resolver) L() hclog.Logger {
	if r.Logger == nil {
		return hclog.L().Named("rpath")
	}

	return r.Logger
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// SearchDirs returns the ordered, de-duplicated directories searched for
// the libraries of info, with $ORIGIN expanded.
func (r *Resolver) SearchDirs(info *Info, origin string) []string {
	var groups [][]string

	if len(info.RunPath) == 0 {
		groups = append(groups, info.RPath)
	}

	groups = append(groups, r.LibraryPath, info.RunPath, r.SystemDirs)

	var (
		seen = mapset.NewSet[string]()
		dirs []string
	)

	for _, group := range groups {
		for _, dir := range group {
			if dir == "" {
				continue
			}

			dir = filepath.Clean(ExpandOrigin(dir, origin))

			if seen.Contains(dir) {
				continue
			}

			seen.Add(dir)
			dirs = append(dirs, dir)
		}
	}

	return dirs
}

// Resolve looks up every needed library of info. Names containing a slash
// are taken as paths and not searched for.
func (r *Resolver) Resolve(info *Info, origin string) []Library {
	exists := r.Exists
	if exists == nil {
		exists = fileExists
	}

	dirs := r.SearchDirs(info, origin)

	libs := make([]Library, 0, len(info.Needed))

	for _, name := range info.Needed {
		lib := Library{Name: name}

		if strings.ContainsRune(name, '/') {
			path := ExpandOrigin(name, origin)
			lib.Path, lib.Found = path, exists(path)
			libs = append(libs, lib)
			continue
		}

		for _, dir := range dirs {
			path := filepath.Join(dir, name)
			if exists(path) {
				lib.Path, lib.Found = path, true
				break
			}
		}

		if !lib.Found {
			r.L().Debug("needed library not found", "name", name, "dirs", len(dirs))
		} else {
			r.L().Trace("resolved needed library", "name", name, "path", lib.Path)
		}

		libs = append(libs, lib)
	}

	return libs
}
