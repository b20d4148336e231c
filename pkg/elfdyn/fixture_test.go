package elfdyn

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

func encodeDyn64(order binary.ByteOrder, ents ...Entry) []byte {
	buf := make([]byte, 16*len(ents))

	for i, e := range ents {
		order.PutUint64(buf[i*16:], uint64(e.Tag))
		order.PutUint64(buf[i*16+8:], e.Val)
	}

	return buf
}

func encodeDyn32(order binary.ByteOrder, ents ...Entry) []byte {
	buf := make([]byte, 8*len(ents))

	for i, e := range ents {
		order.PutUint32(buf[i*8:], uint32(int32(e.Tag)))
		order.PutUint32(buf[i*8+4:], uint32(e.Val))
	}

	return buf
}

var binaryLE = binary.LittleEndian

// image places byte blobs at fixed offsets of a zero filled buffer.
type image []byte

func newImage(size int) image {
	return make(image, size)
}

func (m image) put(off int, b []byte) image {
	copy(m[off:], b)
	return m
}

func (m image) reader() *bytes.Reader {
	return bytes.NewReader(m)
}

type fixtureSection struct {
	name string
	typ  elf.SectionType
	off  uint64
	size uint64
	link uint32
}

// fixture assembles a little endian ELF64 shared object: header and program
// headers at the front, body bytes placed by the test, section headers and
// .shstrtab appended after the body.
type fixture struct {
	body  image
	progs []elf.Prog64
	secs  []fixtureSection
}

func newFixture(bodySize int) *fixture {
	return &fixture{body: newImage(bodySize)}
}

func (f *fixture) prog(typ elf.ProgType, off, vaddr, filesz uint64) *fixture {
	f.progs = append(f.progs, elf.Prog64{
		Type:   uint32(typ),
		Flags:  uint32(elf.PF_R),
		Off:    off,
		Vaddr:  vaddr,
		Paddr:  vaddr,
		Filesz: filesz,
		Memsz:  filesz,
		Align:  8,
	})

	return f
}

func (f *fixture) section(name string, typ elf.SectionType, off, size uint64, link uint32) *fixture {
	f.secs = append(f.secs, fixtureSection{name: name, typ: typ, off: off, size: size, link: link})
	return f
}

func (f *fixture) bytes() []byte {
	if len(f.progs) > 8 {
		panic("fixture supports at most 8 program headers")
	}

	le := binary.LittleEndian
	out := make([]byte, len(f.body))
	copy(out, f.body)

	var (
		shnum    uint16
		shoff    uint64
		shstrndx uint16
	)

	if len(f.secs) > 0 {
		shstr := []byte{0}
		nameOff := make([]uint32, len(f.secs)+1)

		for i, s := range f.secs {
			nameOff[i] = uint32(len(shstr))
			shstr = append(shstr, s.name...)
			shstr = append(shstr, 0)
		}

		nameOff[len(f.secs)] = uint32(len(shstr))
		shstr = append(shstr, ".shstrtab"...)
		shstr = append(shstr, 0)

		shstrOff := uint64(len(out))
		out = append(out, shstr...)

		for len(out)%8 != 0 {
			out = append(out, 0)
		}

		shoff = uint64(len(out))

		var buf bytes.Buffer
		binary.Write(&buf, le, elf.Section64{})

		for i, s := range f.secs {
			binary.Write(&buf, le, elf.Section64{
				Name:      nameOff[i],
				Type:      uint32(s.typ),
				Off:       s.off,
				Size:      s.size,
				Link:      s.link,
				Addralign: 1,
			})
		}

		binary.Write(&buf, le, elf.Section64{
			Name:      nameOff[len(f.secs)],
			Type:      uint32(elf.SHT_STRTAB),
			Off:       shstrOff,
			Size:      uint64(len(shstr)),
			Addralign: 1,
		})

		out = append(out, buf.Bytes()...)
		shnum = uint16(len(f.secs) + 2)
		shstrndx = shnum - 1
	}

	hdr := elf.Header64{
		Type:      uint16(elf.ET_DYN),
		Machine:   uint16(elf.EM_X86_64),
		Version:   uint32(elf.EV_CURRENT),
		Phoff:     0x40,
		Shoff:     shoff,
		Ehsize:    0x40,
		Phentsize: 0x38,
		Phnum:     uint16(len(f.progs)),
		Shentsize: 0x40,
		Shnum:     shnum,
		Shstrndx:  shstrndx,
	}

	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	var head bytes.Buffer
	binary.Write(&head, le, hdr)

	for _, p := range f.progs {
		binary.Write(&head, le, p)
	}

	copy(out, head.Bytes())

	return out
}

// twoStringTables mirrors a library whose DT_STRTAB names a different
// string table than the one its .dynamic section links to.
func twoStringTables() []byte {
	segStrings := []byte("\x00libc.so.6\x00libm.so.6\x00libfoo.so.1\x00")
	secStrings := []byte("\x00aaaaaaaaa\x00bbbbbbbbb\x00ccccccccccc\x00")

	dyn := encodeDyn64(binary.LittleEndian,
		Entry{Tag: DT_NEEDED, Val: 1},
		Entry{Tag: DT_NEEDED, Val: 11},
		Entry{Tag: DT_SONAME, Val: 21},
		Entry{Tag: DT_STRTAB, Val: 0x10190},
		Entry{Tag: DT_STRSZ, Val: uint64(len(segStrings))},
		Entry{Tag: DT_HASH, Val: 0x10120},
		Entry{Tag: DT_NULL},
	)

	f := newFixture(0x800)
	f.body.
		put(0x490, segStrings).
		put(0x600, dyn).
		put(0x700, secStrings)

	f.prog(elf.PT_LOAD, 0x100, 0x10200, 0x200).
		prog(elf.PT_LOAD, 0x400, 0x10100, 0x100).
		prog(elf.PT_LOAD, 0x600, 0x20600, 0x200).
		prog(elf.PT_DYNAMIC, 0x600, 0x20600, uint64(len(dyn)))

	f.section(".dynstr", elf.SHT_STRTAB, 0x700, uint64(len(secStrings)), 0).
		section(".dynamic", elf.SHT_DYNAMIC, 0x600, uint64(len(dyn)), 1)

	return f.bytes()
}
