package elfdyn

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind says which string, if any, a TagView resolved.
type Kind int

const (
	KindRaw Kind = iota
	KindNeeded
	KindRPath
	KindRunPath
	KindSoname
	KindSunwFilter
)

var stringTags = map[Tag]Kind{
	DT_NEEDED:      KindNeeded,
	DT_RPATH:       KindRPath,
	DT_RUNPATH:     KindRunPath,
	DT_SONAME:      KindSoname,
	DT_SUNW_FILTER: KindSunwFilter,
}

var kindAttrs = [...]string{
	KindRaw:        "",
	KindNeeded:     "needed",
	KindRPath:      "rpath",
	KindRunPath:    "runpath",
	KindSoname:     "soname",
	KindSunwFilter: "sunw_filter",
}

func (k Kind) String() string {
	if k == KindRaw {
		return "raw"
	}

	if k > KindRaw && int(k) < len(kindAttrs) {
		return kindAttrs[k]
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// KindOf reports the kind a view of tag will have.
func KindOf(tag Tag) Kind {
	return stringTags[tag]
}

// TagView is a read-only view over one entry. Views of DT_NEEDED,
// DT_RPATH, DT_RUNPATH, DT_SONAME and DT_SUNW_FILTER carry the string the
// entry points at, looked up when the view is made.
type TagView struct {
	entry Entry
	kind  Kind
	value []byte
}

// NewTagView fails with ErrNoStringTable when st is nil, whatever the tag.
func NewTagView(e Entry, st *StringTable) (*TagView, error) {
	if st == nil {
		return nil, errors.Wrapf(ErrNoStringTable, "tag %s", e.Tag)
	}

	v := &TagView{entry: e, kind: KindOf(e.Tag)}

	if v.kind != KindRaw {
		val, err := st.Get(e.Val)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving %s", e.Tag)
		}

		v.value = val
	}

	return v, nil
}

func (v *TagView) Entry() Entry {
	return v.entry
}

func (v *TagView) Tag() Tag {
	return v.entry.Tag
}

func (v *TagView) Kind() Kind {
	return v.kind
}

// Attr is the attribute name of the resolved string ("needed", "soname",
// ...), empty for raw views.
func (v *TagView) Attr() string {
	return kindAttrs[v.kind]
}

// Value returns the resolved string of any non-raw view.
func (v *TagView) Value() ([]byte, bool) {
	if v.kind == KindRaw {
		return nil, false
	}

	return v.value, true
}

func (v *TagView) as(k Kind) ([]byte, bool) {
	if v.kind != k {
		return nil, false
	}

	return v.value, true
}

func (v *TagView) Needed() ([]byte, bool) {
	return v.as(KindNeeded)
}

func (v *TagView) RPath() ([]byte, bool) {
	return v.as(KindRPath)
}

func (v *TagView) RunPath() ([]byte, bool) {
	return v.as(KindRunPath)
}

func (v *TagView) Soname() ([]byte, bool) {
	return v.as(KindSoname)
}

func (v *TagView) SunwFilter() ([]byte, bool) {
	return v.as(KindSunwFilter)
}

// Field delegates to the underlying entry regardless of kind.
func (v *TagView) Field(name string) (uint64, bool) {
	return v.entry.Field(name)
}

func (v *TagView) String() string {
	if v.kind != KindRaw {
		return fmt.Sprintf("%s %q", v.entry.Tag, v.value)
	}

	return fmt.Sprintf("%s %#x", v.entry.Tag, v.entry.Ptr())
}
