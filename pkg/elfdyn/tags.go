package elfdyn

import "fmt"

// Tag is the d_tag field of a dynamic entry. It is signed in both ELF
// classes; 32-bit tags are sign extended.
type Tag int64

const (
	DT_NULL            Tag = 0  /* Marks end of dynamic section */
	DT_NEEDED          Tag = 1  /* Name of needed library */
	DT_PLTRELSZ        Tag = 2  /* Size in bytes of PLT relocs */
	DT_PLTGOT          Tag = 3  /* Processor defined value */
	DT_HASH            Tag = 4  /* Address of symbol hash table */
	DT_STRTAB          Tag = 5  /* Address of string table */
	DT_SYMTAB          Tag = 6  /* Address of symbol table */
	DT_RELA            Tag = 7  /* Address of Rela relocs */
	DT_RELASZ          Tag = 8  /* Total size of Rela relocs */
	DT_RELAENT         Tag = 9  /* Size of one Rela reloc */
	DT_STRSZ           Tag = 10 /* Size of string table */
	DT_SYMENT          Tag = 11 /* Size of one symbol table entry */
	DT_INIT            Tag = 12 /* Address of init function */
	DT_FINI            Tag = 13 /* Address of termination function */
	DT_SONAME          Tag = 14 /* Name of shared object */
	DT_RPATH           Tag = 15 /* Library search path (deprecated) */
	DT_SYMBOLIC        Tag = 16 /* Start symbol search here */
	DT_REL             Tag = 17 /* Address of Rel relocs */
	DT_RELSZ           Tag = 18 /* Total size of Rel relocs */
	DT_RELENT          Tag = 19 /* Size of one Rel reloc */
	DT_PLTREL          Tag = 20 /* Type of reloc in PLT */
	DT_DEBUG           Tag = 21 /* For debugging; unspecified */
	DT_TEXTREL         Tag = 22 /* Reloc might modify .text */
	DT_JMPREL          Tag = 23 /* Address of PLT relocs */
	DT_BIND_NOW        Tag = 24 /* Process relocations of object */
	DT_INIT_ARRAY      Tag = 25 /* Array with addresses of init fct */
	DT_FINI_ARRAY      Tag = 26 /* Array with addresses of fini fct */
	DT_INIT_ARRAYSZ    Tag = 27 /* Size in bytes of DT_INIT_ARRAY */
	DT_FINI_ARRAYSZ    Tag = 28 /* Size in bytes of DT_FINI_ARRAY */
	DT_RUNPATH         Tag = 29 /* Library search path */
	DT_FLAGS           Tag = 30 /* Flags for the object being loaded */
	DT_ENCODING        Tag = 32 /* Start of encoded range */
	DT_PREINIT_ARRAY   Tag = 32 /* Array with addresses of preinit fct*/
	DT_PREINIT_ARRAYSZ Tag = 33 /* size in bytes of DT_PREINIT_ARRAY */
	DT_SYMTAB_SHNDX    Tag = 34 /* Address of SYMTAB_SHNDX section */

	DT_LOOS        Tag = 0x6000000d /* Start of OS-specific */
	DT_SUNW_FILTER Tag = 0x6000000f /* Filtee list (Solaris) */
	DT_HIOS        Tag = 0x6ffff000 /* End of OS-specific */
	DT_LOPROC      Tag = 0x70000000 /* Start of processor-specific */
	DT_HIPROC      Tag = 0x7fffffff /* End of processor-specific */

	/* DT_* entries which fall between DT_VALRNGHI & DT_VALRNGLO use the
	   Dyn.d_un.d_val field of the Elf*_Dyn structure.  This follows Sun's
	   approach.  */
	DT_VALRNGLO       Tag = 0x6ffffd00
	DT_GNU_PRELINKED  Tag = 0x6ffffdf5 /* Prelinking timestamp */
	DT_GNU_CONFLICTSZ Tag = 0x6ffffdf6 /* Size of conflict section */
	DT_GNU_LIBLISTSZ  Tag = 0x6ffffdf7 /* Size of library list */
	DT_CHECKSUM       Tag = 0x6ffffdf8
	DT_PLTPADSZ       Tag = 0x6ffffdf9
	DT_MOVEENT        Tag = 0x6ffffdfa
	DT_MOVESZ         Tag = 0x6ffffdfb
	DT_FEATURE_1      Tag = 0x6ffffdfc /* Feature selection (DTF_*).  */
	DT_POSFLAG_1      Tag = 0x6ffffdfd /* Flags for DT_* entries, effecting
	   the following DT_* entry.  */
	DT_SYMINSZ  Tag = 0x6ffffdfe /* Size of syminfo table (in bytes) */
	DT_SYMINENT Tag = 0x6ffffdff /* Entry size of syminfo */
	DT_VALRNGHI Tag = 0x6ffffdff

	/* DT_* entries between DT_ADDRRNGLO and DT_ADDRRNGHI use the
	   Dyn.d_un.d_ptr field. */
	DT_ADDRRNGLO    Tag = 0x6ffffe00
	DT_GNU_HASH     Tag = 0x6ffffef5 /* GNU-style hash table.  */
	DT_TLSDESC_PLT  Tag = 0x6ffffef6
	DT_TLSDESC_GOT  Tag = 0x6ffffef7
	DT_GNU_CONFLICT Tag = 0x6ffffef8 /* Start of conflict section */
	DT_GNU_LIBLIST  Tag = 0x6ffffef9 /* Library list */
	DT_CONFIG       Tag = 0x6ffffefa /* Configuration information.  */
	DT_DEPAUDIT     Tag = 0x6ffffefb /* Dependency auditing.  */
	DT_AUDIT        Tag = 0x6ffffefc /* Object auditing.  */
	DT_PLTPAD       Tag = 0x6ffffefd /* PLT padding.  */
	DT_MOVETAB      Tag = 0x6ffffefe /* Move table.  */
	DT_SYMINFO      Tag = 0x6ffffeff /* Syminfo table.  */
	DT_ADDRRNGHI    Tag = 0x6ffffeff

	DT_VERSYM     Tag = 0x6ffffff0
	DT_RELACOUNT  Tag = 0x6ffffff9
	DT_RELCOUNT   Tag = 0x6ffffffa
	DT_FLAGS_1    Tag = 0x6ffffffb /* State flags, see DF_1_* below.  */
	DT_VERDEF     Tag = 0x6ffffffc /* Address of version definition table */
	DT_VERDEFNUM  Tag = 0x6ffffffd /* Number of version definitions */
	DT_VERNEED    Tag = 0x6ffffffe /* Address of table with needed versions */
	DT_VERNEEDNUM Tag = 0x6fffffff /* Number of needed versions */
)

// Range markers and aliases (DT_ENCODING, DT_VALRNGHI, ...) are left out
// so every value maps to exactly one name.
var tagNames = map[Tag]string{
	DT_NULL:            "DT_NULL",
	DT_NEEDED:          "DT_NEEDED",
	DT_PLTRELSZ:        "DT_PLTRELSZ",
	DT_PLTGOT:          "DT_PLTGOT",
	DT_HASH:            "DT_HASH",
	DT_STRTAB:          "DT_STRTAB",
	DT_SYMTAB:          "DT_SYMTAB",
	DT_RELA:            "DT_RELA",
	DT_RELASZ:          "DT_RELASZ",
	DT_RELAENT:         "DT_RELAENT",
	DT_STRSZ:           "DT_STRSZ",
	DT_SYMENT:          "DT_SYMENT",
	DT_INIT:            "DT_INIT",
	DT_FINI:            "DT_FINI",
	DT_SONAME:          "DT_SONAME",
	DT_RPATH:           "DT_RPATH",
	DT_SYMBOLIC:        "DT_SYMBOLIC",
	DT_REL:             "DT_REL",
	DT_RELSZ:           "DT_RELSZ",
	DT_RELENT:          "DT_RELENT",
	DT_PLTREL:          "DT_PLTREL",
	DT_DEBUG:           "DT_DEBUG",
	DT_TEXTREL:         "DT_TEXTREL",
	DT_JMPREL:          "DT_JMPREL",
	DT_BIND_NOW:        "DT_BIND_NOW",
	DT_INIT_ARRAY:      "DT_INIT_ARRAY",
	DT_FINI_ARRAY:      "DT_FINI_ARRAY",
	DT_INIT_ARRAYSZ:    "DT_INIT_ARRAYSZ",
	DT_FINI_ARRAYSZ:    "DT_FINI_ARRAYSZ",
	DT_RUNPATH:         "DT_RUNPATH",
	DT_FLAGS:           "DT_FLAGS",
	DT_PREINIT_ARRAY:   "DT_PREINIT_ARRAY",
	DT_PREINIT_ARRAYSZ: "DT_PREINIT_ARRAYSZ",
	DT_SYMTAB_SHNDX:    "DT_SYMTAB_SHNDX",
	DT_SUNW_FILTER:     "DT_SUNW_FILTER",
	DT_GNU_PRELINKED:   "DT_GNU_PRELINKED",
	DT_GNU_CONFLICTSZ:  "DT_GNU_CONFLICTSZ",
	DT_GNU_LIBLISTSZ:   "DT_GNU_LIBLISTSZ",
	DT_CHECKSUM:        "DT_CHECKSUM",
	DT_PLTPADSZ:        "DT_PLTPADSZ",
	DT_MOVEENT:         "DT_MOVEENT",
	DT_MOVESZ:          "DT_MOVESZ",
	DT_FEATURE_1:       "DT_FEATURE_1",
	DT_POSFLAG_1:       "DT_POSFLAG_1",
	DT_SYMINSZ:         "DT_SYMINSZ",
	DT_SYMINENT:        "DT_SYMINENT",
	DT_GNU_HASH:        "DT_GNU_HASH",
	DT_TLSDESC_PLT:     "DT_TLSDESC_PLT",
	DT_TLSDESC_GOT:     "DT_TLSDESC_GOT",
	DT_GNU_CONFLICT:    "DT_GNU_CONFLICT",
	DT_GNU_LIBLIST:     "DT_GNU_LIBLIST",
	DT_CONFIG:          "DT_CONFIG",
	DT_DEPAUDIT:        "DT_DEPAUDIT",
	DT_AUDIT:           "DT_AUDIT",
	DT_PLTPAD:          "DT_PLTPAD",
	DT_MOVETAB:         "DT_MOVETAB",
	DT_SYMINFO:         "DT_SYMINFO",
	DT_VERSYM:          "DT_VERSYM",
	DT_RELACOUNT:       "DT_RELACOUNT",
	DT_RELCOUNT:        "DT_RELCOUNT",
	DT_FLAGS_1:         "DT_FLAGS_1",
	DT_VERDEF:          "DT_VERDEF",
	DT_VERDEFNUM:       "DT_VERDEFNUM",
	DT_VERNEED:         "DT_VERNEED",
	DT_VERNEEDNUM:      "DT_VERNEEDNUM",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}

	return fmt.Sprintf("DT_%#x", int64(t))
}

// ParseTag maps a DT_* name back to its tag. The DT_ prefix is optional
// and matching is case sensitive.
func ParseTag(name string) (Tag, bool) {
	if len(name) < 3 || name[:3] != "DT_" {
		name = "DT_" + name
	}

	for tag, n := range tagNames {
		if n == name {
			return tag, true
		}
	}

	return 0, false
}
