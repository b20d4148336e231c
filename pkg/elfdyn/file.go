package elfdyn

import (
	"debug/elf"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// File is the ELF container the dynamic tables are read from. Header,
// section and segment parsing is left to debug/elf.
type File struct {
	common

	ELF *elf.File

	r          io.ReaderAt
	closer     io.Closer
	dec        *Decoder
	mapper     *AddressMapper
	maxEntries int
}

type FileOption func(f *File)

func FileLogger(l hclog.Logger) FileOption {
	return func(f *File) {
		f.SetLogger(l)
	}
}

// FileMaxEntries caps the scan of every table read from the file.
func FileMaxEntries(n int) FileOption {
	return func(f *File) {
		f.maxEntries = n
	}
}

func Open(path string, opts ...FileOption) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	f, err := NewFile(fh, opts...)
	if err != nil {
		fh.Close()
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	f.closer = fh

	return f, nil
}

func NewFile(r io.ReaderAt, opts ...FileOption) (*File, error) {
	if r == nil {
		return nil, track(ErrNoReader)
	}

	ef, err := elf.NewFile(r)
	if err != nil {
		return nil, track(err)
	}

	dec, err := NewDecoder(ef.Class, ef.ByteOrder)
	if err != nil {
		return nil, err
	}

	f := &File{
		ELF:        ef,
		r:          r,
		dec:        dec,
		maxEntries: DefaultMaxEntries,
	}

	for _, opt := range opts {
		opt(f)
	}

	f.mapper = NewAddressMapper(f.Regions())

	return f, nil
}

func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}

	return f.closer.Close()
}

func (f *File) Decoder() *Decoder {
	return f.dec
}

// Regions lists the PT_LOAD segments in program header order.
func (f *File) Regions() []Region {
	var regions []Region

	for _, p := range f.ELF.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}

		regions = append(regions, Region{
			Vaddr:  p.Vaddr,
			Filesz: p.Filesz,
			Offset: p.Off,
		})
	}

	return regions
}

// Map translates a virtual address into a file offset through the
// loadable segments.
func (f *File) Map(addr, length uint64) (uint64, error) {
	return f.mapper.Resolve(addr, length)
}

func (f *File) tableOptions() []TableOption {
	return []TableOption{
		WithLogger(f.L()),
		WithMaxEntries(f.maxEntries),
	}
}

// DynamicSection is an SHT_DYNAMIC section. Its strings come from the
// section named by sh_link.
type DynamicSection struct {
	*Table
	elf.SectionHeader
}

// DynamicSegment is a PT_DYNAMIC segment. Its string table is found
// through DT_STRTAB.
type DynamicSegment struct {
	*Table
	elf.ProgHeader
}

func (f *File) DynamicSections() ([]*DynamicSection, error) {
	var out []*DynamicSection

	for _, sec := range f.ELF.Sections {
		if sec.Type != elf.SHT_DYNAMIC {
			continue
		}

		if sec.Link == 0 || int(sec.Link) >= len(f.ELF.Sections) {
			return nil, errors.Wrapf(ErrBadLink, "section %s links to %d", sec.Name, sec.Link)
		}

		link := f.ELF.Sections[sec.Link]
		if link.Type == elf.SHT_NOBITS {
			return nil, errors.Wrapf(ErrBadLink, "section %s links to %s with no file data", sec.Name, link.Name)
		}

		st := NewStringTable(f.r, int64(link.Offset), int64(link.Size))

		t, err := NewTable(f.r, int64(sec.Offset), f.dec, append(f.tableOptions(), WithStringTable(st))...)
		if err != nil {
			return nil, err
		}

		out = append(out, &DynamicSection{Table: t, SectionHeader: sec.SectionHeader})
	}

	return out, nil
}

func (f *File) DynamicSegments() ([]*DynamicSegment, error) {
	var out []*DynamicSegment

	for _, p := range f.ELF.Progs {
		if p.Type != elf.PT_DYNAMIC {
			continue
		}

		t, err := NewTable(f.r, int64(p.Off), f.dec, append(f.tableOptions(), WithMapper(f.mapper))...)
		if err != nil {
			return nil, err
		}

		out = append(out, &DynamicSegment{Table: t, ProgHeader: p.ProgHeader})
	}

	return out, nil
}

// Dynamic returns the table of the first PT_DYNAMIC segment, or of the
// first SHT_DYNAMIC section when the file has no such segment.
func (f *File) Dynamic() (*Table, error) {
	segs, err := f.DynamicSegments()
	if err != nil {
		return nil, err
	}

	if len(segs) > 0 {
		return segs[0].Table, nil
	}

	secs, err := f.DynamicSections()
	if err != nil {
		return nil, err
	}

	if len(secs) > 0 {
		return secs[0].Table, nil
	}

	return nil, track(ErrNoDynamic)
}
