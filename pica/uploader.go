package pica

import "math"

// Uploader channels are independent: there is no cross-channel interlock,
// matching spec.md §4.C–D. Each channel is a pair of (set index, upload
// word) calls on the owning Shader.
type uploadState struct {
	codeIndex       int
	descriptorIndex int

	floatUniformIndex  int
	floatUniformWords  int
	floatUniformIsF32  bool
	floatUniformBuffer [4]uint32
}

// SetCodeIndex sets the byte offset into the code buffer for the next
// UploadCodeWord call. Only offsets whose low two bits are zero and whose
// bits above bit 10 are zero are accepted (byte offsets below 0x800,
// word-aligned); any other value is silently ignored, as the hardware
// register this emulates has no documented fault path for it.
func (s *Shader) SetCodeIndex(byteOffset uint32) {
	if byteOffset&0x3 != 0 || byteOffset&^uint32(0x7FF) != 0 {
		return
	}
	s.upload.codeIndex = int((byteOffset >> 2) & 0x1FF)
}

// UploadCodeWord writes one word to the code staging buffer and advances
// the write index, wrapping modulo the buffer's capacity.
func (s *Shader) UploadCodeWord(word uint32) {
	s.codeStaging[s.upload.codeIndex] = word
	s.upload.codeIndex = (s.upload.codeIndex + 1) % codeCapacity
}

// SetDescriptorIndex selects the operand-descriptor slot for the next
// UploadDescriptorWord call, masked to the table's 7-bit index space.
func (s *Shader) SetDescriptorIndex(index uint32) {
	s.upload.descriptorIndex = int(index & 0x7F)
}

// UploadDescriptorWord writes one operand descriptor and advances the
// write index, wrapping modulo the table's capacity.
func (s *Shader) UploadDescriptorWord(word uint32) {
	s.opDescriptors[s.upload.descriptorIndex] = word
	s.upload.descriptorIndex = (s.upload.descriptorIndex + 1) % opDescriptorCap
}

// SetFloatUniformIndex selects the target float uniform (bits [7:0]) and
// the transfer format (bit 31: set selects four packed f32 words, clear
// selects three packed f24 words).
func (s *Shader) SetFloatUniformIndex(word uint32) {
	s.upload.floatUniformIndex = int(word & 0xFF)
	s.upload.floatUniformWords = 0
	s.upload.floatUniformIsF32 = word&0x80000000 != 0
}

// UploadFloatUniformWord buffers one word of the current float-uniform
// transfer. On the final word of the 3- or 4-word sequence it assembles
// the target Vector4[F24] and advances to the next uniform index. Returns
// a BadUniformIndex fault if the target index is out of range when the
// transfer completes.
func (s *Shader) UploadFloatUniformWord(word uint32) error {
	u := &s.upload
	u.floatUniformBuffer[u.floatUniformWords] = word
	u.floatUniformWords++

	want := 3
	if u.floatUniformIsF32 {
		want = 4
	}
	if u.floatUniformWords < want {
		return nil
	}
	u.floatUniformWords = 0

	if u.floatUniformIndex >= floatUniformCap {
		return faultBadUniformIndex(u.floatUniformIndex)
	}

	buf := u.floatUniformBuffer
	var v F24Vec
	if u.floatUniformIsF32 {
		v = F24Vec{
			X: FromFloat32(math.Float32frombits(buf[3])),
			Y: FromFloat32(math.Float32frombits(buf[2])),
			Z: FromFloat32(math.Float32frombits(buf[1])),
			W: FromFloat32(math.Float32frombits(buf[0])),
		}
	} else {
		w0, w1, w2 := buf[0], buf[1], buf[2]
		v = F24Vec{
			X: FromRaw24(w2 & 0xFFFFFF),
			Y: FromRaw24(((w1 & 0xFFFF) << 8) | (w2 >> 24)),
			Z: FromRaw24(((w0 & 0xFF) << 16) | (w1 >> 16)),
			W: FromRaw24(w0 >> 8),
		}
	}
	s.floatUniforms[u.floatUniformIndex] = v
	u.floatUniformIndex++
	return nil
}

// Commit atomically copies the staged code buffer into the live buffer.
// Uploads become visible to subsequent Run calls only after this call.
func (s *Shader) Commit() {
	s.codeLive = s.codeStaging
}
