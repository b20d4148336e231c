package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/morikuni/aec"
	"lab47.dev/dynelf/pkg/elfdyn"
	"lab47.dev/dynelf/pkg/humanize"
	"lab47.dev/dynelf/pkg/rpath"
)

const (
	colTitleIndex = "#"
	colTitleTag   = "Tag"
	colTitleValue = "Value"
	colTitleName  = "Name"
	colTitlePath  = "Path"
)

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	return tw
}

func tagValue(v *elfdyn.TagView) string {
	if s, ok := v.Value(); ok {
		return fmt.Sprintf("[%s] %s", v.Attr(), s)
	}

	return fmt.Sprintf("%#x", v.Entry().Val)
}

// Tags renders one row per dynamic entry, in the order given.
func Tags(w io.Writer, title string, views []*elfdyn.TagView) error {
	tw := newTable()
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{colTitleIndex, colTitleTag, colTitleValue})

	for i, v := range views {
		tw.AppendRow(table.Row{i, v.Tag().String(), tagValue(v)})
	}

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

// StringTable prints where a table's strings were read from.
func StringTable(w io.Writer, st *elfdyn.StringTable) error {
	size, _ := st.Size()

	_, err := fmt.Fprintf(w, "string table at offset %#x, size %s\n", st.Offset(), humanize.Format(size))
	return err
}

// Info renders the naming information of one object.
func Info(w io.Writer, info *rpath.Info) error {
	tw := newTable()
	tw.AppendHeader(table.Row{colTitleTag, colTitleValue})
	tw.SuppressEmptyColumns()

	if info.Soname != "" {
		tw.AppendRow(table.Row{elfdyn.DT_SONAME.String(), info.Soname})
	}

	for _, n := range info.Needed {
		tw.AppendRow(table.Row{elfdyn.DT_NEEDED.String(), n})
	}

	for _, d := range info.RPath {
		tw.AppendRow(table.Row{elfdyn.DT_RPATH.String(), d})
	}

	for _, d := range info.RunPath {
		tw.AppendRow(table.Row{elfdyn.DT_RUNPATH.String(), d})
	}

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

const notFound = "not found"

// Libraries renders the outcome of resolving needed libraries. Missing
// libraries show "not found" in place of a path, in bold red when color is
// set.
func Libraries(w io.Writer, libs []rpath.Library, color bool) error {
	tw := newTable()
	tw.AppendHeader(table.Row{colTitleName, colTitlePath})

	for _, lib := range libs {
		path := lib.Path
		if !lib.Found {
			path = notFound
			if color {
				path = aec.RedF.With(aec.Bold).Apply(notFound)
			}
		}

		tw.AppendRow(table.Row{lib.Name, path})
	}

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}
