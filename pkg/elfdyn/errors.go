package elfdyn

import "github.com/pkg/errors"

var (
	ErrNoReader             = errors.New("dynamic table requires a reader")
	ErrNoPosition           = errors.New("dynamic table requires a position")
	ErrNoStringTable        = errors.New("dynamic tag created without string table")
	ErrNoMapper             = errors.New("no address mapper to locate the string table")
	ErrUnmapped             = errors.New("address not mapped by any loadable segment")
	ErrMissingStringTable   = errors.New("dynamic table has no DT_STRTAB entry")
	ErrAmbiguousStringTable = errors.New("dynamic table has more than one string table entry")
	ErrMalformed            = errors.New("malformed dynamic table")
	ErrTagIndex             = errors.New("dynamic tag index out of range")
	ErrStringOutOfRange     = errors.New("string offset past end of string table")
	ErrBadLink              = errors.New("dynamic section links to an invalid string table")
	ErrNoDynamic            = errors.New("file has no dynamic table")
)

func track(err error) error {
	return errors.WithStack(err)
}
