package elfdyn

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// UnknownSize marks a string table whose extent is not recorded. Lookups
// then read until a NUL byte or the end of the stream.
const UnknownSize int64 = -1

const strtabChunk = 64

// StringTable reads NUL-terminated strings out of a byte range of the file.
type StringTable struct {
	r      io.ReaderAt
	offset int64
	size   int64
}

func NewStringTable(r io.ReaderAt, offset, size int64) *StringTable {
	if size < 0 {
		size = UnknownSize
	}

	return &StringTable{r: r, offset: offset, size: size}
}

// Offset is the file offset of the first byte of the table.
func (s *StringTable) Offset() int64 {
	return s.offset
}

// Size reports the table size, false when it is unknown.
func (s *StringTable) Size() (int64, bool) {
	return s.size, s.size != UnknownSize
}

// Get returns the string starting off bytes into the table, without the
// terminating NUL. A string cut short by the table end or the end of the
// stream is returned as is.
func (s *StringTable) Get(off uint64) ([]byte, error) {
	limit := int64(-1)

	if s.size != UnknownSize {
		if off > uint64(s.size) {
			return nil, errors.Wrapf(ErrStringOutOfRange, "offset %#x, size %#x", off, s.size)
		}

		limit = s.size - int64(off)
	}

	var (
		out = []byte{}
		pos = s.offset + int64(off)
		buf = make([]byte, strtabChunk)
	)

	for limit != 0 {
		chunk := buf
		if limit > 0 && limit < int64(len(chunk)) {
			chunk = chunk[:limit]
		}

		n, err := s.r.ReadAt(chunk, pos)
		if idx := bytes.IndexByte(chunk[:n], 0); idx != -1 {
			return append(out, chunk[:idx]...), nil
		}

		out = append(out, chunk[:n]...)
		pos += int64(n)

		if limit > 0 {
			limit -= int64(n)
		}

		if err != nil {
			if err == io.EOF {
				break
			}

			return nil, errors.Wrapf(err, "reading string at table offset %#x", off)
		}

		if n == 0 {
			break
		}
	}

	return out, nil
}
