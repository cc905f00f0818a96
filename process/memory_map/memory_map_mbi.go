package memory_map

// MEMORY_BASIC_INFORMATION State and Type values
const (
	memFree    = 0x10000
	memPrivate = 0x20000
	memMapped  = 0x40000
	memImage   = 0x1000000
)

// PAGE_* protection constants
const (
	pageNoAccess         = 0x01
	pageReadOnly         = 0x02
	pageReadWrite        = 0x04
	pageWriteCopy        = 0x08
	pageExecute          = 0x10
	pageExecuteRead      = 0x20
	pageExecuteReadWrite = 0x40
	pageExecuteWriteCopy = 0x80
	pageGuard            = 0x100
	pageNoCache          = 0x200
	pageWriteCombine     = 0x400
)

// protectionFromPage translates a PAGE_* value. Guard survives as ProtGuard,
// the caching modifiers are dropped.
func protectionFromPage(protect uint32) Protection {
	prot := ProtNone
	switch protect &^ (pageGuard | pageNoCache | pageWriteCombine) {
	case pageReadOnly:
		prot = ProtRead
	case pageReadWrite, pageWriteCopy:
		prot = ProtRead | ProtWrite
	case pageExecute:
		prot = ProtExec
	case pageExecuteRead:
		prot = ProtRead | ProtExec
	case pageExecuteReadWrite, pageExecuteWriteCopy:
		prot = ProtRead | ProtWrite | ProtExec
	case pageNoAccess:
		prot = ProtNone
	}
	if protect&pageGuard != 0 {
		prot |= ProtGuard
	}
	return prot
}

// mappingTypeFromMBI translates a MEM_IMAGE, MEM_MAPPED or MEM_PRIVATE type
func mappingTypeFromMBI(t uint32) MappingType {
	switch t {
	case memImage:
		return MappingImage
	case memMapped:
		return MappingFile
	case memPrivate:
		return MappingPrivate
	}
	return MappingUnknown
}
