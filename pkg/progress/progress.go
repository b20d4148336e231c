package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	pb "github.com/schollz/progressbar/v3"
)

type barSink struct {
	w io.Writer
}

type sinkKey struct{}

// Open makes progress bars created from ctx render to w.
func Open(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, sinkKey{}, barSink{w})
}

// Disable turns progress reporting off for ctx and its children.
func Disable(ctx context.Context) context.Context {
	return context.WithValue(ctx, sinkKey{}, nil)
}

// Progress tracks work over a number of files. A zero Progress ignores
// every call.
type Progress struct {
	bar    *pb.ProgressBar
	prefix string
}

func (t *Progress) Tick() {
	if t.bar == nil {
		return
	}

	t.bar.Add(1)
}

func (t *Progress) Close() {
	if t.bar == nil {
		return
	}

	t.bar.Finish()
}

// On names the file currently being processed.
func (t *Progress) On(file string) {
	if t.bar == nil {
		return
	}

	t.bar.Describe(t.prefix + ": " + file)
}

// Files returns a bar counting total files. A single file gets no bar.
func Files(ctx context.Context, total int, desc string) *Progress {
	if total < 2 {
		return &Progress{}
	}

	sink, ok := ctx.Value(sinkKey{}).(barSink)
	if !ok {
		return &Progress{}
	}

	bar := pb.NewOptions(
		total,
		pb.OptionSetDescription(desc),
		pb.OptionSetWriter(sink.w),
		pb.OptionSetWidth(20),
		pb.OptionThrottle(65*time.Millisecond),
		pb.OptionShowCount(),
		pb.OptionSetTheme(
			pb.Theme{Saucer: "=", SaucerPadding: " ", BarStart: "[", BarEnd: "]"},
		),
		pb.OptionOnCompletion(func() {
			fmt.Fprint(sink.w, "\n")
		}),
	)
	bar.RenderBlank()

	return &Progress{prefix: desc, bar: bar}
}
