package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"reflect"

	"github.com/jessevdk/go-flags"
	"golang.org/x/sys/unix"
	"lab47.dev/dynelf/pkg/progress"
)

// Cmd adapts a func(context.Context, OptsStruct) error into a
// mitchellh/cli command. The fields of OptsStruct are parsed with go-flags.
type Cmd struct {
	syn, name string
	f         reflect.Value

	opts   reflect.Value
	parser *flags.Parser

	// Verbose, when set and returning true, prints errors with their
	// stack trace.
	Verbose func() bool

	stderr io.Writer
}

func New(name, syn string, f interface{}) *Cmd {
	rv := reflect.ValueOf(f)

	if rv.Kind() != reflect.Func {
		panic("must pass a function")
	}

	rt := rv.Type()

	if rt.NumIn() != 2 {
		panic("must provide two arguments only")
	}

	if rt.NumOut() != 1 {
		panic("must return one argument only")
	}

	in := rt.In(1)

	if in.Kind() != reflect.Struct {
		panic("argument must be a struct")
	}

	sv := reflect.New(in)

	parser := flags.NewNamedParser(name, flags.HelpFlag|flags.PassDoubleDash)
	parser.ShortDescription = syn
	parser.LongDescription = syn

	_, err := parser.AddGroup("Application Options", "", sv.Interface())
	if err != nil {
		panic(err)
	}

	return &Cmd{
		syn:    syn,
		name:   name,
		f:      rv,
		opts:   sv,
		parser: parser,
		stderr: os.Stderr,
	}
}

func (w *Cmd) Help() string {
	var buf bytes.Buffer
	w.parser.WriteHelp(&buf)
	return buf.String()
}

func (w *Cmd) Synopsis() string {
	return w.syn
}

// Run parses args and calls the wrapped function. Exit status is 1 when
// the function fails and 2 for usage errors.
func (w *Cmd) Run(args []string) int {
	return w.RunContext(context.Background(), args)
}

func (w *Cmd) RunContext(ctx context.Context, args []string) int {
	w.opts.Elem().Set(reflect.Zero(w.opts.Elem().Type()))

	_, err := w.parser.ParseArgs(args)
	if err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			fmt.Fprintln(w.stderr, w.Help())
			return 0
		}

		fmt.Fprintf(w.stderr, "! %s\n\n%s\n", err, w.Help())
		return 2
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cancelOnSignal(ctx, cancel, os.Interrupt, unix.SIGQUIT, unix.SIGTERM)

	ctx = progress.Open(ctx, w.stderr)

	rets := w.f.Call([]reflect.Value{reflect.ValueOf(ctx), w.opts.Elem()})

	if err, ok := rets[0].Interface().(error); ok && err != nil {
		if w.Verbose != nil && w.Verbose() {
			fmt.Fprintf(w.stderr, "! Error: %+v\n", err)
		} else {
			fmt.Fprintf(w.stderr, "! Error: %v\n", err)
		}

		return 1
	}

	return 0
}

func cancelOnSignal(ctx context.Context, cancel func(), signals ...os.Signal) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, signals...)

	go func() {
		defer signal.Stop(c)

		select {
		case <-c:
			cancel()
		case <-ctx.Done():
		}
	}()
}
