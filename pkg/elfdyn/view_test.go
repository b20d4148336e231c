package elfdyn

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagView(t *testing.T) {
	strs := newImage(0x40).put(0, []byte("\x00libc.so.6\x00/opt/a:/opt/b\x00filtee.so\x00"))
	st := NewStringTable(strs.reader(), 0, UnknownSize)

	t.Run("requires a string table for every tag", func(t *testing.T) {
		for _, tag := range []Tag{DT_NEEDED, DT_HASH, DT_NULL, DT_SONAME} {
			_, err := NewTagView(Entry{Tag: tag}, nil)
			assert.True(t, errors.Is(err, ErrNoStringTable), "tag %s", tag)
		}
	})

	t.Run("resolves string bearing tags", func(t *testing.T) {
		cases := []struct {
			tag  Tag
			val  uint64
			kind Kind
			attr string
			want string
		}{
			{DT_NEEDED, 1, KindNeeded, "needed", "libc.so.6"},
			{DT_RPATH, 11, KindRPath, "rpath", "/opt/a:/opt/b"},
			{DT_RUNPATH, 11, KindRunPath, "runpath", "/opt/a:/opt/b"},
			{DT_SONAME, 1, KindSoname, "soname", "libc.so.6"},
			{DT_SUNW_FILTER, 25, KindSunwFilter, "sunw_filter", "filtee.so"},
		}

		for _, c := range cases {
			v, err := NewTagView(Entry{Tag: c.tag, Val: c.val}, st)
			require.NoError(t, err)

			assert.Equal(t, c.kind, v.Kind())
			assert.Equal(t, c.attr, v.Attr())

			val, ok := v.Value()
			require.True(t, ok)
			assert.Equal(t, c.want, string(val))
		}
	})

	t.Run("exposes only the accessor matching the tag", func(t *testing.T) {
		v, err := NewTagView(Entry{Tag: DT_NEEDED, Val: 1}, st)
		require.NoError(t, err)

		_, ok := v.Soname()
		assert.False(t, ok)

		_, ok = v.RPath()
		assert.False(t, ok)

		_, ok = v.RunPath()
		assert.False(t, ok)

		_, ok = v.SunwFilter()
		assert.False(t, ok)

		needed, ok := v.Needed()
		assert.True(t, ok)
		assert.Equal(t, []byte("libc.so.6"), needed)
	})

	t.Run("leaves other tags raw", func(t *testing.T) {
		v, err := NewTagView(Entry{Tag: DT_HASH, Val: 0x1f0}, st)
		require.NoError(t, err)

		assert.Equal(t, KindRaw, v.Kind())
		assert.Equal(t, "", v.Attr())

		_, ok := v.Value()
		assert.False(t, ok)

		assert.Equal(t, "DT_HASH 0x1f0", v.String())
	})

	t.Run("delegates field lookups to the entry", func(t *testing.T) {
		v, err := NewTagView(Entry{Tag: DT_NEEDED, Val: 1}, st)
		require.NoError(t, err)

		tag, ok := v.Field("d_tag")
		require.True(t, ok)
		assert.Equal(t, uint64(DT_NEEDED), tag)

		val, ok := v.Field("d_val")
		require.True(t, ok)
		assert.Equal(t, uint64(1), val)

		ptr, ok := v.Field("d_ptr")
		require.True(t, ok)
		assert.Equal(t, uint64(1), ptr)

		_, ok = v.Field("needed")
		assert.False(t, ok)
	})

	t.Run("renders resolved strings quoted", func(t *testing.T) {
		v, err := NewTagView(Entry{Tag: DT_NEEDED, Val: 1}, st)
		require.NoError(t, err)

		assert.Equal(t, `DT_NEEDED "libc.so.6"`, v.String())
	})

	t.Run("propagates lookup failures", func(t *testing.T) {
		bounded := NewStringTable(strs.reader(), 0, 4)

		_, err := NewTagView(Entry{Tag: DT_NEEDED, Val: 9}, bounded)
		assert.True(t, errors.Is(err, ErrStringOutOfRange))
	})
}

func TestTagNames(t *testing.T) {
	t.Run("names known tags", func(t *testing.T) {
		assert.Equal(t, "DT_NEEDED", DT_NEEDED.String())
		assert.Equal(t, "DT_GNU_HASH", DT_GNU_HASH.String())
		assert.Equal(t, "DT_PREINIT_ARRAY", DT_ENCODING.String())
	})

	t.Run("falls back to hex", func(t *testing.T) {
		assert.Equal(t, "DT_0x70000001", Tag(0x70000001).String())
	})

	t.Run("parses names with or without prefix", func(t *testing.T) {
		tag, ok := ParseTag("DT_SONAME")
		require.True(t, ok)
		assert.Equal(t, DT_SONAME, tag)

		tag, ok = ParseTag("RUNPATH")
		require.True(t, ok)
		assert.Equal(t, DT_RUNPATH, tag)

		_, ok = ParseTag("DT_BOGUS")
		assert.False(t, ok)
	})
}
