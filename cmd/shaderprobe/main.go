// Command shaderprobe is a visual smoke test for the shader interpreter:
// it uploads a one-instruction program through the real Uploader wire
// format, runs it, and paints the window with the resulting output color.
// It is developer tooling, not a renderer — no PICA surface formats,
// rasterization, or window-system framebuffer glue live here.
package main

import (
	"flag"
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/golang/glog"

	"github.com/kurenai-dev/horizoncore/pica"
)

var (
	red   = flag.Float64("r", 1.0, "red component of the color uniform")
	green = flag.Float64("g", 0.0, "green component of the color uniform")
	blue  = flag.Float64("b", 0.0, "blue component of the color uniform")
)

// identitySwizzleDescriptor encodes an operand descriptor whose three source
// slots all select (x, y, z, w) unchanged with no negation and a full
// write mask — the same encoding pica's interpreter tests use.
const identitySwizzleDescriptor = 0x1B<<23 | 0x1B<<14 | 0x1B<<5 | 0xF

// buildColorSwatch uploads float_uniforms[0] = (r, g, b, 1), then a single
// MOV of that uniform into outputs[0], followed by END, and commits it.
func buildColorSwatch(s *pica.Shader, r, g, b float32) error {
	s.SetDescriptorIndex(0)
	s.UploadDescriptorWord(identitySwizzleDescriptor)

	s.SetFloatUniformIndex(0) // format bit clear: three f24-packed words follow
	if err := uploadF24Uniform(s, r, g, b, 1); err != nil {
		return err
	}

	const movDest = 0              // outputs[0]
	const movSrc = 16               // float_uniforms[0] (srcFloatUniformBase)
	const descIdx = 0
	movWord := uint32(0x13)<<26 | movDest<<21 | movSrc<<14 | descIdx<<7

	s.SetCodeIndex(0)
	s.UploadCodeWord(movWord)
	s.UploadCodeWord(uint32(0x22) << 26) // END

	s.Commit()
	return nil
}

// uploadF24Uniform packs r, g, b, 1 into the three f24-packed words the
// Uploader's bit-exact decoder expects (spec.md §4.D), matching the
// arrival order real PICA200 microcode uses: w0 holds w whole and z's high
// byte, w1 holds z's low 16 bits and y's high 16 bits, w2 holds y's low
// byte and x whole.
func uploadF24Uniform(s *pica.Shader, r, g, b, a float32) error {
	x := pica.FromFloat32(r).ToRaw24()
	y := pica.FromFloat32(g).ToRaw24()
	z := pica.FromFloat32(b).ToRaw24()
	w := pica.FromFloat32(a).ToRaw24()

	w0 := (w << 8) | (z >> 16)
	w1 := ((z & 0xFFFF) << 16) | (y >> 8)
	w2 := ((y & 0xFF) << 24) | x

	if err := s.UploadFloatUniformWord(w0); err != nil {
		return err
	}
	if err := s.UploadFloatUniformWord(w1); err != nil {
		return err
	}
	return s.UploadFloatUniformWord(w2)
}

func runSwatch(r, g, b float32) (pica.F24Vec, error) {
	s := pica.New(pica.Vertex)
	if err := buildColorSwatch(s, r, g, b); err != nil {
		return pica.F24Vec{}, err
	}
	if err := s.Run(0); err != nil {
		return pica.F24Vec{}, err
	}
	return s.Outputs()[0], nil
}

func main() {
	flag.Parse()

	color, err := runSwatch(float32(*red), float32(*green), float32(*blue))
	if err != nil {
		glog.Fatalf("shaderprobe: interpreter run failed: %v", err)
	}
	fmt.Printf("outputs[0] = (%.4f, %.4f, %.4f, %.4f)\n",
		color.X.ToFloat32(), color.Y.ToFloat32(), color.Z.ToFloat32(), color.W.ToFloat32())

	if err := glfw.Init(); err != nil {
		glog.Fatalln(err)
	}
	defer glfw.Terminate()
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)

	window, err := glfw.CreateWindow(320, 240, "shaderprobe", nil, nil)
	if err != nil {
		glog.Fatalln(err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		glog.Fatalln(err)
	}

	r, g, b := color.X.ToFloat32(), color.Y.ToFloat32(), color.Z.ToFloat32()
	for !window.ShouldClose() {
		gl.ClearColor(r, g, b, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT)
		window.SwapBuffers()
		glfw.PollEvents()
	}
}
