package cro

import "fmt"

// LinkerFaultKind enumerates the module linker's distinguishable error
// conditions (spec §7).
type LinkerFaultKind int

const (
	BadMagic LinkerFaultKind = iota
	AlreadyLoaded
	SymbolNotFound
	ModuleImportUnimplemented
	NullRelocationTarget
	UnknownSegmentId
	UnknownPatchType
	StaticAnonymousUnimplemented
	CrsNotLoaded
	ChainCorrupt
)

func (k LinkerFaultKind) String() string {
	switch k {
	case BadMagic:
		return "BadMagic"
	case AlreadyLoaded:
		return "AlreadyLoaded"
	case SymbolNotFound:
		return "SymbolNotFound"
	case ModuleImportUnimplemented:
		return "ModuleImportUnimplemented"
	case NullRelocationTarget:
		return "NullRelocationTarget"
	case UnknownSegmentId:
		return "UnknownSegmentId"
	case UnknownPatchType:
		return "UnknownPatchType"
	case StaticAnonymousUnimplemented:
		return "StaticAnonymousUnimplemented"
	case CrsNotLoaded:
		return "CrsNotLoaded"
	case ChainCorrupt:
		return "ChainCorrupt"
	default:
		return "Unknown"
	}
}

// LinkerFault is returned by Module operations that violate one of the
// linker's structural invariants.
type LinkerFault struct {
	Kind   LinkerFaultKind
	Detail string
}

func (f *LinkerFault) Error() string {
	if f.Detail == "" {
		return fmt.Sprintf("linker fault: %s", f.Kind)
	}
	return fmt.Sprintf("linker fault: %s: %s", f.Kind, f.Detail)
}

func faultBadMagic(got string) error {
	return &LinkerFault{Kind: BadMagic, Detail: fmt.Sprintf("got %q, want \"CRO0\"", got)}
}

func faultAlreadyLoaded() error {
	return &LinkerFault{Kind: AlreadyLoaded}
}

func faultSymbolNotFound(name string) error {
	return &LinkerFault{Kind: SymbolNotFound, Detail: name}
}

func faultModuleImportUnimplemented() error {
	return &LinkerFault{Kind: ModuleImportUnimplemented, Detail: "module-import linkage is not supported"}
}

func faultNullRelocationTarget() error {
	return &LinkerFault{Kind: NullRelocationTarget}
}

func faultUnknownSegmentId(segmentID uint32, segmentIndex uint32) error {
	return &LinkerFault{Kind: UnknownSegmentId, Detail: fmt.Sprintf("id %d in segment %d", segmentID, segmentIndex)}
}

func faultUnknownPatchType(patchType uint8) error {
	return &LinkerFault{Kind: UnknownPatchType, Detail: fmt.Sprintf("%#x", patchType)}
}

func faultStaticAnonymousUnimplemented(count uint32) error {
	return &LinkerFault{Kind: StaticAnonymousUnimplemented, Detail: fmt.Sprintf("%d entries", count)}
}

func faultCrsNotLoaded() error {
	return &LinkerFault{Kind: CrsNotLoaded}
}

func faultChainCorrupt(detail string) error {
	return &LinkerFault{Kind: ChainCorrupt, Detail: detail}
}
