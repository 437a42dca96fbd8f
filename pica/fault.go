package pica

import "fmt"

// FaultKind enumerates the shader interpreter's distinguishable error
// conditions (spec §7).
type FaultKind int

const (
	StackOverflow FaultKind = iota
	UnknownOpcode
	BadUniformIndex
)

func (k FaultKind) String() string {
	switch k {
	case StackOverflow:
		return "StackOverflow"
	case UnknownOpcode:
		return "UnknownOpcode"
	case BadUniformIndex:
		return "BadUniformIndex"
	default:
		return "Unknown"
	}
}

// ShaderFault is returned by Uploader and Interpreter operations that
// violate one of the shader's structural invariants.
type ShaderFault struct {
	Kind    FaultKind
	Detail  string
	PC      uint32
	Opcode  uint32
	Index   int
}

func (f *ShaderFault) Error() string {
	switch f.Kind {
	case UnknownOpcode:
		return fmt.Sprintf("shader fault: unknown opcode 0x%02x at pc=%d", f.Opcode, f.PC)
	case StackOverflow:
		return fmt.Sprintf("shader fault: stack overflow (%s) at pc=%d", f.Detail, f.PC)
	case BadUniformIndex:
		return fmt.Sprintf("shader fault: bad float-uniform index %d", f.Index)
	default:
		return fmt.Sprintf("shader fault: %s", f.Detail)
	}
}

func faultStackOverflow(stack string, pc uint32) error {
	return &ShaderFault{Kind: StackOverflow, Detail: stack, PC: pc}
}

func faultUnknownOpcode(opcode uint32, pc uint32) error {
	return &ShaderFault{Kind: UnknownOpcode, Opcode: opcode, PC: pc}
}

func faultBadUniformIndex(index int) error {
	return &ShaderFault{Kind: BadUniformIndex, Index: index}
}
