package elfdyn

import "github.com/pkg/errors"

// Region is the part of a loadable segment backed by file bytes.
type Region struct {
	Vaddr  uint64
	Filesz uint64
	Offset uint64
}

// Mapper translates virtual addresses into file offsets.
type Mapper interface {
	Resolve(addr, length uint64) (uint64, error)
}

// AddressMapper maps addresses through a fixed set of regions. Regions are
// kept in the order given; when several contain an address the first one
// wins.
type AddressMapper struct {
	regions []Region
}

func NewAddressMapper(regions []Region) *AddressMapper {
	return &AddressMapper{regions: append([]Region(nil), regions...)}
}

func (m *AddressMapper) Regions() []Region {
	return append([]Region(nil), m.regions...)
}

// Resolve returns the file offset of addr. length bytes starting at addr
// must fit in the same region; a zero length only requires addr itself to
// be inside it, so addr may not sit on the region end.
func (m *AddressMapper) Resolve(addr, length uint64) (uint64, error) {
	for _, r := range m.regions {
		if addr < r.Vaddr {
			continue
		}

		delta := addr - r.Vaddr
		if delta > r.Filesz {
			continue
		}

		if length == 0 {
			if delta == r.Filesz {
				continue
			}
		} else if length > r.Filesz-delta {
			continue
		}

		return r.Offset + delta, nil
	}

	if length == 0 {
		return 0, errors.Wrapf(ErrUnmapped, "address %#x", addr)
	}

	return 0, errors.Wrapf(ErrUnmapped, "address %#x length %#x", addr, length)
}
