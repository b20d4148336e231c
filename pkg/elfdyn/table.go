package elfdyn

import (
	"io"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// DefaultMaxEntries bounds the scan of a table whose DT_NULL never shows up.
const DefaultMaxEntries = 1 << 16

// Table is a DT_NULL terminated array of dynamic entries at a fixed file
// position. Nothing is read until the first accessor is called; the result
// of that single scan, error included, is kept for the life of the Table.
type Table struct {
	common

	r          io.ReaderAt
	pos        int64
	dec        *Decoder
	mapper     Mapper
	maxEntries int

	once    sync.Once
	loads   int
	err     error
	entries []Entry
	byTag   map[Tag][]Entry
	strtab  *StringTable
}

type TableOption func(t *Table)

// WithStringTable supplies the string table up front. Tables built without
// one locate it through DT_STRTAB when loaded.
func WithStringTable(st *StringTable) TableOption {
	return func(t *Table) {
		t.strtab = st
	}
}

// WithMapper sets the address mapper used to locate DT_STRTAB.
func WithMapper(m Mapper) TableOption {
	return func(t *Table) {
		t.mapper = m
	}
}

func WithMaxEntries(n int) TableOption {
	return func(t *Table) {
		if n > 0 {
			t.maxEntries = n
		}
	}
}

func WithLogger(l hclog.Logger) TableOption {
	return func(t *Table) {
		t.SetLogger(l)
	}
}

func NewTable(r io.ReaderAt, pos int64, dec *Decoder, opts ...TableOption) (*Table, error) {
	if r == nil {
		return nil, track(ErrNoReader)
	}

	if pos < 0 {
		return nil, errors.Wrapf(ErrNoPosition, "invalid position %d", pos)
	}

	if dec == nil {
		return nil, errors.New("dynamic table requires a decoder")
	}

	t := &Table{
		r:          r,
		pos:        pos,
		dec:        dec,
		maxEntries: DefaultMaxEntries,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Position is the file offset of the first entry.
func (t *Table) Position() int64 {
	return t.pos
}

func (t *Table) load() error {
	t.once.Do(func() {
		t.loads++
		t.err = t.scan()
	})

	return t.err
}

func (t *Table) scan() error {
	var (
		entries []Entry
		byTag   = make(map[Tag][]Entry)
		step    = t.dec.Size()
	)

	for n := 0; ; n++ {
		if n >= t.maxEntries {
			return errors.Wrapf(ErrMalformed, "no DT_NULL within %d entries at offset %#x", t.maxEntries, t.pos)
		}

		ent, err := t.dec.DecodeAt(t.r, t.pos+int64(n)*step)
		if err != nil {
			return err
		}

		entries = append(entries, ent)
		byTag[ent.Tag] = append(byTag[ent.Tag], ent)

		if ent.Tag == DT_NULL {
			break
		}
	}

	t.L().Trace("loaded dynamic table", "offset", t.pos, "entries", len(entries))

	if t.strtab == nil {
		st, err := t.bootstrap(byTag)
		if err != nil {
			return err
		}

		t.strtab = st
	}

	t.entries = entries
	t.byTag = byTag

	return nil
}

// bootstrap builds the string table named by the DT_STRTAB and optional
// DT_STRSZ entries.
func (t *Table) bootstrap(byTag map[Tag][]Entry) (*StringTable, error) {
	strtab := byTag[DT_STRTAB]

	switch len(strtab) {
	case 0:
		return nil, track(ErrMissingStringTable)
	case 1:
	default:
		return nil, errors.Wrapf(ErrAmbiguousStringTable, "%d DT_STRTAB entries", len(strtab))
	}

	var (
		size   = UnknownSize
		length uint64
	)

	switch strsz := byTag[DT_STRSZ]; len(strsz) {
	case 0:
	case 1:
		length = strsz[0].Val
		size = int64(length)
	default:
		return nil, errors.Wrapf(ErrAmbiguousStringTable, "%d DT_STRSZ entries", len(strsz))
	}

	if t.mapper == nil {
		return nil, track(ErrNoMapper)
	}

	off, err := t.mapper.Resolve(strtab[0].Ptr(), length)
	if err != nil {
		return nil, errors.Wrapf(err, "locating DT_STRTAB")
	}

	t.L().Debug("located dynamic string table", "address", strtab[0].Ptr(), "offset", off, "size", size)

	return NewStringTable(t.r, int64(off), size), nil
}

// Entries returns a copy of the raw entries in file order, DT_NULL last.
func (t *Table) Entries() ([]Entry, error) {
	if err := t.load(); err != nil {
		return nil, err
	}

	return append([]Entry(nil), t.entries...), nil
}

// StringTable returns the supplied or bootstrapped string table.
func (t *Table) StringTable() (*StringTable, error) {
	if err := t.load(); err != nil {
		return nil, err
	}

	return t.strtab, nil
}

// NumTags counts every entry including the terminating DT_NULL.
func (t *Table) NumTags() (int, error) {
	if err := t.load(); err != nil {
		return 0, err
	}

	return len(t.entries), nil
}

// GetTag returns a view of the n-th entry in file order.
func (t *Table) GetTag(n int) (*TagView, error) {
	if err := t.load(); err != nil {
		return nil, err
	}

	if n < 0 || n >= len(t.entries) {
		return nil, errors.Wrapf(ErrTagIndex, "index %d of %d", n, len(t.entries))
	}

	return NewTagView(t.entries[n], t.strtab)
}

// IterTags calls fn with a fresh view of every entry in file order,
// stopping at the first error fn returns.
func (t *Table) IterTags(fn func(v *TagView) error) error {
	if err := t.load(); err != nil {
		return err
	}

	return t.iter(t.entries, fn)
}

// IterTagsOf is IterTags restricted to entries of one tag. A tag that is
// not present visits nothing.
func (t *Table) IterTagsOf(tag Tag, fn func(v *TagView) error) error {
	if err := t.load(); err != nil {
		return err
	}

	return t.iter(t.byTag[tag], fn)
}

func (t *Table) iter(entries []Entry, fn func(v *TagView) error) error {
	for _, ent := range entries {
		v, err := NewTagView(ent, t.strtab)
		if err != nil {
			return err
		}

		if err := fn(v); err != nil {
			return err
		}
	}

	return nil
}

// Tags collects the views IterTags would visit.
func (t *Table) Tags() ([]*TagView, error) {
	var views []*TagView

	err := t.IterTags(func(v *TagView) error {
		views = append(views, v)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return views, nil
}

// TagsOf collects the views IterTagsOf would visit.
func (t *Table) TagsOf(tag Tag) ([]*TagView, error) {
	var views []*TagView

	err := t.IterTagsOf(tag, func(v *TagView) error {
		views = append(views, v)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return views, nil
}
