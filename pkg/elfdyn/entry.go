package elfdyn

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// Entry is one raw Elf32_Dyn / Elf64_Dyn record. d_val and d_ptr share
// storage; Val holds it and Ptr reads the same bits as an address.
type Entry struct {
	Tag Tag
	Val uint64
}

func (e Entry) Ptr() uint64 {
	return e.Val
}

// Field looks up a record field by its ELF name: d_tag, d_val or d_ptr.
func (e Entry) Field(name string) (uint64, bool) {
	switch name {
	case "d_tag":
		return uint64(e.Tag), true
	case "d_val", "d_ptr":
		return e.Val, true
	default:
		return 0, false
	}
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %#x", e.Tag, e.Val)
}

type dyn32 struct {
	Tag int32
	Val uint32
}

type dyn64 struct {
	Tag int64
	Val uint64
}

// Decoder unpacks dynamic records of one ELF class and byte order.
type Decoder struct {
	class elf.Class
	opts  *struc.Options
	size  int64
}

func NewDecoder(class elf.Class, order binary.ByteOrder) (*Decoder, error) {
	if order == nil {
		return nil, errors.New("byte order is required")
	}

	var proto interface{}

	switch class {
	case elf.ELFCLASS32:
		proto = &dyn32{}
	case elf.ELFCLASS64:
		proto = &dyn64{}
	default:
		return nil, errors.Errorf("unsupported ELF class: %s", class)
	}

	size, err := struc.Sizeof(proto)
	if err != nil {
		return nil, track(err)
	}

	return &Decoder{
		class: class,
		opts:  &struc.Options{Order: order},
		size:  int64(size),
	}, nil
}

// Size is the width of one record in bytes.
func (d *Decoder) Size() int64 {
	return d.size
}

func (d *Decoder) Class() elf.Class {
	return d.class
}

// DecodeAt reads the record at off. A short read is reported as
// ErrMalformed.
func (d *Decoder) DecodeAt(r io.ReaderAt, off int64) (Entry, error) {
	buf := make([]byte, d.size)

	n, err := r.ReadAt(buf, off)
	if int64(n) < d.size {
		if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
			return Entry{}, errors.Wrapf(ErrMalformed, "truncated dynamic entry at offset %#x", off)
		}

		return Entry{}, errors.Wrapf(err, "reading dynamic entry at offset %#x", off)
	}

	if d.class == elf.ELFCLASS32 {
		var raw dyn32
		if err := struc.UnpackWithOptions(bytes.NewReader(buf), &raw, d.opts); err != nil {
			return Entry{}, errors.Wrapf(err, "decoding dynamic entry at offset %#x", off)
		}

		return Entry{Tag: Tag(raw.Tag), Val: uint64(raw.Val)}, nil
	}

	var raw dyn64
	if err := struc.UnpackWithOptions(bytes.NewReader(buf), &raw, d.opts); err != nil {
		return Entry{}, errors.Wrapf(err, "decoding dynamic entry at offset %#x", off)
	}

	return Entry{Tag: Tag(raw.Tag), Val: raw.Val}, nil
}
