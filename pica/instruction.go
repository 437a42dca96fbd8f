package pica

// Opcode values, top 6 bits of the instruction word (spec §4.E).
const (
	opADD   = 0x00
	opDP3   = 0x01
	opDP4   = 0x02
	opMUL   = 0x08
	opMIN   = 0x0D
	opRSQ   = 0x0F
	opMOVA  = 0x12
	opMOV   = 0x13
	opNOP   = 0x21
	opEND   = 0x22
	opCALLU = 0x26
	opIFU   = 0x27
	opIFC   = 0x28
	opLOOP  = 0x29
	opCMP1  = 0x2E
	opCMP2  = 0x2F
	opMADLo = 0x38
	opMADHi = 0x3F
)

func decodeOpcode(word uint32) uint32 {
	return word >> 26
}

// Source addressing ranges (spec §4.E): 0-15 attributes, 16-31 float
// uniforms, 32-47 temp registers. Destination: 0-15 outputs, 16-31 temp.
const (
	srcAttributeBase    = 0
	srcFloatUniformBase = 16
	srcTempBase         = 32

	destOutputBase = 0
	destTempBase   = 16
)

// arithInstruction decodes the two-operand arithmetic format shared by
// ADD, DP3, DP4, MUL and MIN: dest(5) | src1(7) | src2(7) | descIdx(7),
// packed into the 26 bits below the opcode.
type arithInstruction struct {
	dest    uint32
	src1    uint32
	src2    uint32
	descIdx uint32
}

func decodeArith(word uint32) arithInstruction {
	return arithInstruction{
		dest:    (word >> 21) & 0x1F,
		src1:    (word >> 14) & 0x7F,
		src2:    (word >> 7) & 0x7F,
		descIdx: word & 0x7F,
	}
}

// unaryInstruction decodes the one-operand format shared by MOV, MOVA and
// RSQ: dest(5) | src1(7) | descIdx(7).
type unaryInstruction struct {
	dest    uint32
	src1    uint32
	descIdx uint32
}

func decodeUnary(word uint32) unaryInstruction {
	return unaryInstruction{
		dest:    (word >> 21) & 0x1F,
		src1:    (word >> 14) & 0x7F,
		descIdx: (word >> 7) & 0x7F,
	}
}

// madInstruction decodes the three-operand MAD format: dest(5) | src1(6) |
// src2(6) | src3(6) | descIdx(3). The narrower source and descriptor
// fields (versus the two-operand format) are the price of fitting three
// source operands into the remaining 26 bits of one instruction word.
type madInstruction struct {
	dest    uint32
	src1    uint32
	src2    uint32
	src3    uint32
	descIdx uint32
}

func decodeMAD(word uint32) madInstruction {
	return madInstruction{
		dest:    (word >> 21) & 0x1F,
		src1:    (word >> 15) & 0x3F,
		src2:    (word >> 9) & 0x3F,
		src3:    (word >> 3) & 0x3F,
		descIdx: word & 0x7,
	}
}

// branchInstruction decodes the shared format for IFU, IFC, CALLU and
// LOOP: selector(4) | dst(12) | num(10).
type branchInstruction struct {
	selector uint32
	dst      uint32
	num      uint32
}

func decodeBranch(word uint32) branchInstruction {
	return branchInstruction{
		selector: (word >> 22) & 0xF,
		dst:      (word >> 10) & 0xFFF,
		num:      word & 0x3FF,
	}
}

// cmpOp is one of the six comparison-register operators.
type cmpOp uint32

const (
	cmpEQ cmpOp = iota
	cmpNE
	cmpLT
	cmpLE
	cmpGT
	cmpGE
)

func (op cmpOp) evaluate(a, b float32) bool {
	switch op {
	case cmpEQ:
		return a == b
	case cmpNE:
		return a != b
	case cmpLT:
		return a < b
	case cmpLE:
		return a <= b
	case cmpGT:
		return a > b
	case cmpGE:
		return a >= b
	default:
		return false
	}
}

// cmpInstruction decodes CMP (0x2E/0x2F): src1(7) | src2(7) | descIdx(6) |
// opX(3) | opY(3).
type cmpInstruction struct {
	src1    uint32
	src2    uint32
	descIdx uint32
	opX     cmpOp
	opY     cmpOp
}

func decodeCMP(word uint32) cmpInstruction {
	return cmpInstruction{
		src1:    (word >> 19) & 0x7F,
		src2:    (word >> 12) & 0x7F,
		descIdx: (word >> 6) & 0x3F,
		opX:     cmpOp((word >> 3) & 0x7),
		opY:     cmpOp(word & 0x7),
	}
}

// operandDescriptor is the decoded form of one 32-bit entry from the
// operand-descriptor table: per-source-slot negate and swizzle, plus the
// destination write mask (spec §4.E).
type operandDescriptor struct {
	negate  [3]bool
	swizzle [3][4]int // swizzle[slot][destLane] = source component index
	mask    [4]bool   // mask[component]
}

func decodeOperandDescriptor(word uint32) operandDescriptor {
	var d operandDescriptor
	for i := 0; i < 4; i++ {
		d.mask[i] = (word>>uint(3-i))&1 != 0
	}
	d.negate[0] = (word>>4)&1 != 0
	d.negate[1] = (word>>13)&1 != 0
	d.negate[2] = (word>>22)&1 != 0
	d.swizzle[0] = decodeSwizzle((word >> 5) & 0xFF)
	d.swizzle[1] = decodeSwizzle((word >> 14) & 0xFF)
	d.swizzle[2] = decodeSwizzle((word >> 23) & 0xFF)
	return d
}

// decodeSwizzle reads the four 2-bit component selectors in reverse lane
// order: the lowest two bits fill destination lane 3, the highest fill
// lane 0.
func decodeSwizzle(bits uint32) [4]int {
	var out [4]int
	for comp := 0; comp < 4; comp++ {
		out[3-comp] = int(bits & 0x3)
		bits >>= 2
	}
	return out
}

// applySwizzle selects and negates components of src according to slot's
// decoded negate/swizzle.
func (d operandDescriptor) applySwizzle(slot int, src F24Vec) F24Vec {
	var out F24Vec
	sw := d.swizzle[slot]
	for lane := 0; lane < 4; lane++ {
		out = out.SetComponent(lane, src.Component(sw[lane]))
	}
	if d.negate[slot] {
		out = NegF24Vec(out)
	}
	return out
}
