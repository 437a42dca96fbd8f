package pica

const (
	codeCapacity        = 512
	opDescriptorCap     = 128
	floatUniformCap     = 96
	intUniformCap       = 4
	attributeCap        = 16
	outputCap           = 16
	tempRegisterCap     = 16
	loopStackCap        = 4
	ifStackCap          = 8
	callStackCap        = 8
)

// Kind distinguishes the two shader units this spec models. Both run the
// same instruction set; only the owning stage differs.
type Kind int

const (
	Vertex Kind = iota
	Geometry
)

type loopFrame struct {
	startPC, endPC     uint32
	iterationsRemaining uint32
	increment           uint32
}

type ifFrame struct {
	endPC, resumePC uint32
}

type callFrame struct {
	endPC, returnPC uint32
}

// Shader owns every piece of state listed in spec.md §3's state table. One
// instance belongs to exactly one shader kind; there is no aliasing between
// instances, so independent Shaders may run concurrently with no locking
// (spec.md §5).
type Shader struct {
	kind Kind

	codeLive    [codeCapacity]uint32
	codeStaging [codeCapacity]uint32

	opDescriptors [opDescriptorCap]uint32

	floatUniforms [floatUniformCap]F24Vec
	intUniforms   [intUniformCap]Vector4[uint8]
	boolUniforms  uint16 // 16 usable bits

	attributes    [attributeCap]F24Vec
	outputs       [outputCap]F24Vec
	tempRegisters [tempRegisterCap]F24Vec

	addrRegister [2]int32
	cmpRegister  [2]bool
	loopCounter  uint32
	pc           uint32

	loopStack     [loopStackCap]loopFrame
	loopStackLen  int
	ifStack       [ifStackCap]ifFrame
	ifStackLen    int
	callStack     [callStackCap]callFrame
	callStackLen  int

	upload uploadState
}

// New creates a shader of the given kind with all buffers zeroed.
func New(kind Kind) *Shader {
	return &Shader{kind: kind}
}

// Kind returns which shader stage this instance belongs to.
func (s *Shader) Kind() Kind {
	return s.kind
}

// Outputs returns the output registers written by the most recent Run.
func (s *Shader) Outputs() [outputCap]F24Vec {
	return s.outputs
}

// SetAttributes installs the per-run input attribute set.
func (s *Shader) SetAttributes(attrs [attributeCap]F24Vec) {
	s.attributes = attrs
}

// SetBoolUniforms installs the boolean uniform bitfield (low 16 bits used).
func (s *Shader) SetBoolUniforms(bits uint16) {
	s.boolUniforms = bits
}

// SetIntUniform installs one of the four integer uniform vectors.
func (s *Shader) SetIntUniform(index int, v Vector4[uint8]) {
	s.intUniforms[index%intUniformCap] = v
}

// FloatUniform returns a float uniform by index, for tests and tooling.
func (s *Shader) FloatUniform(index int) F24Vec {
	return s.floatUniforms[index%floatUniformCap]
}
