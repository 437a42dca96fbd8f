package pica

import "math"

type instrExec func(s *Shader, word uint32) error

// dispatch maps single-valued opcodes to their executor. MAD (0x38-0x3F)
// is handled separately since it occupies a contiguous range rather than
// one value.
var dispatch = map[uint32]instrExec{
	opADD:   (*Shader).execADD,
	opDP3:   (*Shader).execDP3,
	opDP4:   (*Shader).execDP4,
	opMUL:   (*Shader).execMUL,
	opMIN:   (*Shader).execMIN,
	opRSQ:   (*Shader).execRSQ,
	opMOVA:  (*Shader).execMOVA,
	opMOV:   (*Shader).execMOV,
	opNOP:   (*Shader).execNOP,
	opCALLU: (*Shader).execCALLU,
	opIFU:   (*Shader).execIFU,
	opIFC:   (*Shader).execIFC,
	opLOOP:  (*Shader).execLOOP,
	opCMP1:  (*Shader).execCMP,
	opCMP2:  (*Shader).execCMP,
}

// Run executes code_live starting at entrypoint until an END instruction,
// clearing the control-flow stacks and loop_counter first (spec §4.E).
func (s *Shader) Run(entrypoint uint32) error {
	s.pc = entrypoint
	s.loopCounter = 0
	s.loopStackLen = 0
	s.ifStackLen = 0
	s.callStackLen = 0

	for {
		s.checkBlockExits()

		word := s.codeLive[s.pc%codeCapacity]
		op := decodeOpcode(word)

		if op == opEND {
			return nil
		}
		if op >= opMADLo && op <= opMADHi {
			s.execMAD(word)
			s.pc++
			continue
		}
		exec, ok := dispatch[op]
		if !ok {
			return faultUnknownOpcode(op, s.pc)
		}
		if err := exec(s, word); err != nil {
			return err
		}
		s.pc++
	}
}

// checkBlockExits pops any structured-control frames whose end_pc has been
// reached, innermost-first, before the instruction at the current pc runs.
func (s *Shader) checkBlockExits() {
	for s.ifStackLen > 0 && s.pc == s.ifStack[s.ifStackLen-1].endPC {
		frame := s.ifStack[s.ifStackLen-1]
		s.ifStackLen--
		s.pc = frame.resumePC
	}
	for s.loopStackLen > 0 {
		top := &s.loopStack[s.loopStackLen-1]
		if s.pc != top.endPC {
			break
		}
		if top.iterationsRemaining == 0 {
			s.loopStackLen--
			continue
		}
		top.iterationsRemaining--
		s.loopCounter += top.increment
		s.pc = top.startPC
	}
	for s.callStackLen > 0 && s.pc == s.callStack[s.callStackLen-1].endPC {
		frame := s.callStack[s.callStackLen-1]
		s.callStackLen--
		s.pc = frame.returnPC
	}
}

func (s *Shader) getSource(index uint32, offsetByAddr bool) F24Vec {
	idx := int(index)
	switch {
	case index < srcFloatUniformBase:
		return s.attributes[idx%attributeCap]
	case index < srcTempBase:
		i := idx - srcFloatUniformBase
		if offsetByAddr {
			i += int(s.addrRegister[0])
		}
		return s.floatUniforms[((i%floatUniformCap)+floatUniformCap)%floatUniformCap]
	default:
		return s.tempRegisters[(idx-srcTempBase)%tempRegisterCap]
	}
}

func (s *Shader) getDestPtr(index uint32) *F24Vec {
	idx := int(index)
	if index < destTempBase {
		return &s.outputs[idx%outputCap]
	}
	return &s.tempRegisters[(idx-destTempBase)%tempRegisterCap]
}

func (s *Shader) writeMasked(dest *F24Vec, mask [4]bool, value F24Vec) {
	for lane := 0; lane < 4; lane++ {
		if mask[lane] {
			*dest = dest.SetComponent(lane, value.Component(lane))
		}
	}
}

func (s *Shader) descriptor(idx uint32) operandDescriptor {
	return decodeOperandDescriptor(s.opDescriptors[idx%opDescriptorCap])
}

func (s *Shader) execADD(word uint32) error {
	i := decodeArith(word)
	d := s.descriptor(i.descIdx)
	src1 := d.applySwizzle(0, s.getSource(i.src1, false))
	src2 := d.applySwizzle(1, s.getSource(i.src2, false))
	result := F24Vec{X: src1.X.Add(src2.X), Y: src1.Y.Add(src2.Y), Z: src1.Z.Add(src2.Z), W: src1.W.Add(src2.W)}
	s.writeMasked(s.getDestPtr(i.dest), d.mask, result)
	return nil
}

func (s *Shader) execMUL(word uint32) error {
	i := decodeArith(word)
	d := s.descriptor(i.descIdx)
	src1 := d.applySwizzle(0, s.getSource(i.src1, false))
	src2 := d.applySwizzle(1, s.getSource(i.src2, false))
	result := F24Vec{X: src1.X.Mul(src2.X), Y: src1.Y.Mul(src2.Y), Z: src1.Z.Mul(src2.Z), W: src1.W.Mul(src2.W)}
	s.writeMasked(s.getDestPtr(i.dest), d.mask, result)
	return nil
}

func (s *Shader) execMIN(word uint32) error {
	i := decodeArith(word)
	d := s.descriptor(i.descIdx)
	src1 := d.applySwizzle(0, s.getSource(i.src1, false))
	src2 := d.applySwizzle(1, s.getSource(i.src2, false))
	result := F24Vec{X: minF24(src1.X, src2.X), Y: minF24(src1.Y, src2.Y), Z: minF24(src1.Z, src2.Z), W: minF24(src1.W, src2.W)}
	s.writeMasked(s.getDestPtr(i.dest), d.mask, result)
	return nil
}

func minF24(a, b F24) F24 {
	if a.ToFloat32() < b.ToFloat32() {
		return a
	}
	return b
}

func (s *Shader) execDP3(word uint32) error {
	i := decodeArith(word)
	d := s.descriptor(i.descIdx)
	src1 := d.applySwizzle(0, s.getSource(i.src1, false))
	src2 := d.applySwizzle(1, s.getSource(i.src2, false))
	dot := src1.X.Mul(src2.X).Add(src1.Y.Mul(src2.Y)).Add(src1.Z.Mul(src2.Z))
	result := F24Vec{X: dot, Y: dot, Z: dot, W: dot}
	s.writeMasked(s.getDestPtr(i.dest), d.mask, result)
	return nil
}

func (s *Shader) execDP4(word uint32) error {
	i := decodeArith(word)
	d := s.descriptor(i.descIdx)
	src1 := d.applySwizzle(0, s.getSource(i.src1, false))
	src2 := d.applySwizzle(1, s.getSource(i.src2, false))
	dot := src1.X.Mul(src2.X).Add(src1.Y.Mul(src2.Y)).Add(src1.Z.Mul(src2.Z)).Add(src1.W.Mul(src2.W))
	result := F24Vec{X: dot, Y: dot, Z: dot, W: dot}
	s.writeMasked(s.getDestPtr(i.dest), d.mask, result)
	return nil
}

func (s *Shader) execRSQ(word uint32) error {
	i := decodeUnary(word)
	d := s.descriptor(i.descIdx)
	src1 := d.applySwizzle(0, s.getSource(i.src1, false))
	r := FromFloat32(float32(1 / math.Sqrt(float64(src1.X.ToFloat32()))))
	result := F24Vec{X: r, Y: r, Z: r, W: r}
	s.writeMasked(s.getDestPtr(i.dest), d.mask, result)
	return nil
}

func (s *Shader) execMOV(word uint32) error {
	i := decodeUnary(word)
	d := s.descriptor(i.descIdx)
	src1 := d.applySwizzle(0, s.getSource(i.src1, false))
	s.writeMasked(s.getDestPtr(i.dest), d.mask, src1)
	return nil
}

func (s *Shader) execMOVA(word uint32) error {
	i := decodeUnary(word)
	d := s.descriptor(i.descIdx)
	src1 := d.applySwizzle(0, s.getSource(i.src1, false))
	s.addrRegister[0] = int32(src1.X.ToFloat32())
	s.addrRegister[1] = int32(src1.Y.ToFloat32())
	return nil
}

func (s *Shader) execNOP(word uint32) error {
	return nil
}

func (s *Shader) execMAD(word uint32) {
	i := decodeMAD(word)
	d := s.descriptor(i.descIdx)
	src1 := d.applySwizzle(0, s.getSource(i.src1, false))
	src2 := d.applySwizzle(1, s.getSource(i.src2, i.src2 >= srcFloatUniformBase))
	src3 := d.applySwizzle(2, s.getSource(i.src3, i.src3 >= srcFloatUniformBase))
	result := F24Vec{
		X: src1.X.Mul(src2.X).Add(src3.X),
		Y: src1.Y.Mul(src2.Y).Add(src3.Y),
		Z: src1.Z.Mul(src2.Z).Add(src3.Z),
		W: src1.W.Mul(src2.W).Add(src3.W),
	}
	s.writeMasked(s.getDestPtr(i.dest), d.mask, result)
}

func (s *Shader) execCMP(word uint32) error {
	i := decodeCMP(word)
	d := s.descriptor(i.descIdx)
	src1 := d.applySwizzle(0, s.getSource(i.src1, false))
	src2 := d.applySwizzle(1, s.getSource(i.src2, false))
	s.cmpRegister[0] = i.opX.evaluate(src1.X.ToFloat32(), src2.X.ToFloat32())
	s.cmpRegister[1] = i.opY.evaluate(src1.Y.ToFloat32(), src2.Y.ToFloat32())
	return nil
}

func (s *Shader) execIFU(word uint32) error {
	b := decodeBranch(word)
	uniformBit := (s.boolUniforms >> (b.selector & 0xF)) & 1
	return s.execIf(uniformBit != 0, b)
}

func (s *Shader) execIFC(word uint32) error {
	b := decodeBranch(word)
	expectX := b.selector&0x1 != 0
	expectY := b.selector&0x2 != 0
	useAnd := b.selector&0x4 != 0
	x := s.cmpRegister[0] == expectX
	y := s.cmpRegister[1] == expectY
	var pred bool
	if useAnd {
		pred = x && y
	} else {
		pred = x || y
	}
	return s.execIf(pred, b)
}

// execIf implements the shared IFU/IFC semantics. When the predicate is
// true, the if-body [pc+1, dst) runs next and a frame is pushed so that
// reaching dst skips the else-body by jumping straight to dst+num. When
// false, execution jumps directly to the else-body at dst and needs no
// frame: running it through to dst+num is the natural fall-through.
func (s *Shader) execIf(pred bool, b branchInstruction) error {
	if pred {
		if s.ifStackLen >= ifStackCap {
			return faultStackOverflow("if", s.pc)
		}
		s.ifStack[s.ifStackLen] = ifFrame{endPC: b.dst, resumePC: b.dst + b.num}
		s.ifStackLen++
		return nil
	}
	s.pc = b.dst - 1 // Run's loop increments pc after this returns
	return nil
}

func (s *Shader) execCALLU(word uint32) error {
	b := decodeBranch(word)
	uniformBit := (s.boolUniforms >> (b.selector & 0xF)) & 1
	if uniformBit == 0 {
		return nil
	}
	if s.callStackLen >= callStackCap {
		return faultStackOverflow("call", s.pc)
	}
	s.callStack[s.callStackLen] = callFrame{endPC: b.dst + b.num, returnPC: s.pc + 1}
	s.callStackLen++
	s.pc = b.dst - 1
	return nil
}

func (s *Shader) execLOOP(word uint32) error {
	b := decodeBranch(word)
	u := s.intUniforms[b.selector%intUniformCap]
	iterations := uint32(u.X) + 1
	initial := uint32(u.Y)
	increment := uint32(u.Z)

	if s.loopStackLen >= loopStackCap {
		return faultStackOverflow("loop", s.pc)
	}
	s.loopCounter = initial
	s.loopStack[s.loopStackLen] = loopFrame{
		startPC:              s.pc + 1,
		endPC:                b.dst,
		iterationsRemaining:  iterations - 1,
		increment:            increment,
	}
	s.loopStackLen++
	return nil
}
