package elfdyn

import (
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder(t *testing.T) {
	t.Run("sizes records by class", func(t *testing.T) {
		d64, err := NewDecoder(elf.ELFCLASS64, binary.LittleEndian)
		require.NoError(t, err)
		assert.Equal(t, int64(16), d64.Size())
		assert.Equal(t, elf.ELFCLASS64, d64.Class())

		d32, err := NewDecoder(elf.ELFCLASS32, binary.LittleEndian)
		require.NoError(t, err)
		assert.Equal(t, int64(8), d32.Size())
		assert.Equal(t, elf.ELFCLASS32, d32.Class())
	})

	t.Run("rejects unknown classes", func(t *testing.T) {
		_, err := NewDecoder(elf.ELFCLASSNONE, binary.LittleEndian)
		assert.Error(t, err)
	})

	t.Run("decodes at an offset", func(t *testing.T) {
		d, err := NewDecoder(elf.ELFCLASS64, binary.BigEndian)
		require.NoError(t, err)

		data := newImage(0x30).put(0x10, encodeDyn64(binary.BigEndian, Entry{Tag: DT_FLAGS_1, Val: 0x8000001}))

		ent, err := d.DecodeAt(data.reader(), 0x10)
		require.NoError(t, err)
		assert.Equal(t, Entry{Tag: DT_FLAGS_1, Val: 0x8000001}, ent)
	})

	t.Run("sign extends 32-bit tags", func(t *testing.T) {
		d, err := NewDecoder(elf.ELFCLASS32, binary.LittleEndian)
		require.NoError(t, err)

		data := encodeDyn32(binary.LittleEndian, Entry{Tag: Tag(-2), Val: 7})

		ent, err := d.DecodeAt(image(data).reader(), 0)
		require.NoError(t, err)
		assert.Equal(t, Tag(-2), ent.Tag)
	})

	t.Run("reports truncated records as malformed", func(t *testing.T) {
		d, err := NewDecoder(elf.ELFCLASS64, binary.LittleEndian)
		require.NoError(t, err)

		_, err = d.DecodeAt(newImage(20).reader(), 8)
		assert.True(t, errors.Is(err, ErrMalformed))
	})
}

func TestEntryField(t *testing.T) {
	e := Entry{Tag: DT_STRTAB, Val: 0x4000}

	assert.Equal(t, uint64(0x4000), e.Ptr())
	assert.Equal(t, "DT_STRTAB 0x4000", e.String())

	_, ok := e.Field("d_un")
	assert.False(t, ok)
}
