package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"lab47.dev/dynelf/pkg/cmd"
	"lab47.dev/dynelf/pkg/config"
	"lab47.dev/dynelf/pkg/elfdyn"
	"lab47.dev/dynelf/pkg/progress"
	"lab47.dev/dynelf/pkg/report"
	"lab47.dev/dynelf/pkg/rpath"
)

func main() {
	c := cli.NewCLI("dynelf", "0.1.0")
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"dump": func() (cli.Command, error) {
			return newCmd(
				"dump",
				"print the dynamic table of one or more ELF files",
				dumpF,
			), nil
		},
		"needed": func() (cli.Command, error) {
			return newCmd(
				"needed",
				"print the soname, needed libraries and search paths of a file",
				neededF,
			), nil
		},
		"map": func() (cli.Command, error) {
			return newCmd(
				"map",
				"translate a virtual address to a file offset",
				mapF,
			), nil
		},
		"resolve": func() (cli.Command, error) {
			return newCmd(
				"resolve",
				"find the needed libraries of a file on disk",
				resolveF,
			), nil
		},
		"debug": func() (cli.Command, error) {
			return newCmd(
				"debug",
				"dump the raw dynamic entries of a file",
				debugF,
			), nil
		},
	}

	exitStatus, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
	}

	os.Exit(exitStatus)
}

func newCmd(name, syn string, f interface{}) *cmd.Cmd {
	c := cmd.New(name, syn, f)
	c.Verbose = func() bool {
		cfg, err := config.LoadConfig()
		if err != nil {
			return false
		}

		return cfg.Logger(io.Discard).IsDebug()
	}

	return c
}

type env struct {
	cfg *config.Config
	L   hclog.Logger
}

func setup() (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	L := cfg.Logger(os.Stderr)
	hclog.SetDefault(L)

	return &env{cfg: cfg, L: L}, nil
}

func (e *env) open(path string) (*elfdyn.File, error) {
	f, err := elfdyn.Open(path,
		elfdyn.FileLogger(e.L.Named("elfdyn")),
		elfdyn.FileMaxEntries(e.cfg.MaxEntries),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	return f, nil
}

type dynamicTable interface {
	Tags() ([]*elfdyn.TagView, error)
	StringTable() (*elfdyn.StringTable, error)
}

func dumpF(ctx context.Context, opts struct {
	Sections bool `short:"s" long:"sections" description:"read SHT_DYNAMIC sections instead of the PT_DYNAMIC segment"`

	Pos struct {
		Files []string `positional-arg-name:"file" required:"1"`
	} `positional-args:"yes"`
}) error {
	e, err := setup()
	if err != nil {
		return err
	}

	bar := progress.Files(ctx, len(opts.Pos.Files), "dump")
	defer bar.Close()

	var errs error

	for _, path := range opts.Pos.Files {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}

		bar.On(path)

		multierr.AppendInto(&errs, dumpFile(e, path, opts.Sections))

		bar.Tick()
	}

	return errs
}

func dumpFile(e *env, path string, sections bool) error {
	f, err := e.open(path)
	if err != nil {
		return err
	}

	defer f.Close()

	var tables []dynamicTable

	if sections {
		secs, err := f.DynamicSections()
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}

		for _, sec := range secs {
			tables = append(tables, sec)
		}
	} else {
		t, err := f.Dynamic()
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}

		tables = append(tables, t)
	}

	for _, t := range tables {
		views, err := t.Tags()
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}

		st, err := t.StringTable()
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}

		if err := report.Tags(os.Stdout, path, views); err != nil {
			return err
		}

		if err := report.StringTable(os.Stdout, st); err != nil {
			return err
		}
	}

	return nil
}

func readInfo(e *env, path string) (*rpath.Info, error) {
	f, err := e.open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	t, err := f.Dynamic()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	info, err := rpath.Read(t)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	return info, nil
}

func neededF(ctx context.Context, opts struct {
	Pos struct {
		File string `positional-arg-name:"file" required:"yes"`
	} `positional-args:"yes"`
}) error {
	e, err := setup()
	if err != nil {
		return err
	}

	info, err := readInfo(e, opts.Pos.File)
	if err != nil {
		return err
	}

	return report.Info(os.Stdout, info)
}

func mapF(ctx context.Context, opts struct {
	Pos struct {
		File    string `positional-arg-name:"file" required:"yes"`
		Address string `positional-arg-name:"addr" required:"yes"`
		Length  string `positional-arg-name:"len"`
	} `positional-args:"yes"`
}) error {
	e, err := setup()
	if err != nil {
		return err
	}

	addr, err := strconv.ParseUint(opts.Pos.Address, 0, 64)
	if err != nil {
		return errors.Wrapf(err, "parsing address %q", opts.Pos.Address)
	}

	var length uint64

	if opts.Pos.Length != "" {
		length, err = strconv.ParseUint(opts.Pos.Length, 0, 64)
		if err != nil {
			return errors.Wrapf(err, "parsing length %q", opts.Pos.Length)
		}
	}

	f, err := e.open(opts.Pos.File)
	if err != nil {
		return err
	}

	defer f.Close()

	off, err := f.Map(addr, length)
	if err != nil {
		return err
	}

	fmt.Printf("%#x\n", off)

	return nil
}

func resolveF(ctx context.Context, opts struct {
	Missing bool `short:"m" long:"missing" description:"fail when a library is not found"`
	Color   bool `long:"color" description:"highlight libraries that were not found"`

	Pos struct {
		File string `positional-arg-name:"file" required:"yes"`
	} `positional-args:"yes"`
}) error {
	e, err := setup()
	if err != nil {
		return err
	}

	info, err := readInfo(e, opts.Pos.File)
	if err != nil {
		return err
	}

	origin, err := filepath.Abs(filepath.Dir(opts.Pos.File))
	if err != nil {
		return err
	}

	conf, err := rpath.ReadLdSoConf("/")
	if err != nil {
		e.L.Warn("unable to read loader configuration", "error", err)
	}

	r := &rpath.Resolver{
		LibraryPath: e.cfg.LibraryPath,
		SystemDirs:  append(conf, e.cfg.SystemDirs...),
		Logger:      e.L.Named("rpath"),
	}

	libs := r.Resolve(info, origin)

	if err := report.Libraries(os.Stdout, libs, opts.Color); err != nil {
		return err
	}

	if !opts.Missing {
		return nil
	}

	var errs error

	for _, lib := range libs {
		if !lib.Found {
			errs = multierr.Append(errs, errors.Errorf("library %s not found", lib.Name))
		}
	}

	return errs
}

func debugF(ctx context.Context, opts struct {
	Pos struct {
		File string `positional-arg-name:"file" required:"yes"`
	} `positional-args:"yes"`
}) error {
	e, err := setup()
	if err != nil {
		return err
	}

	f, err := e.open(opts.Pos.File)
	if err != nil {
		return err
	}

	defer f.Close()

	t, err := f.Dynamic()
	if err != nil {
		return err
	}

	entries, err := t.Entries()
	if err != nil {
		return err
	}

	dec := f.Decoder()
	fmt.Printf("class %s, %d byte entries at offset %#x\n", dec.Class(), dec.Size(), t.Position())

	spew.Fdump(os.Stdout, f.Regions(), entries)

	return nil
}
