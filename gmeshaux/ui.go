//go:build !tinygo && cgo

package gmeshaux

import (
	"fmt"
	"log"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/gmesh"
)

const vertexSource = `#version 460
in vec3 aPos;
in vec3 aNormal;
uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProj;
out vec3 vNormal;
void main() {
	vNormal = mat3(uModel) * aNormal;
	gl_Position = uProj * uView * uModel * vec4(aPos, 1.0);
}
` + "\x00"

const fragmentSource = `#version 460
in vec3 vNormal;
uniform vec3 uColor;
out vec4 fragColor;
void main() {
	vec3 light = normalize(vec3(1.0, 1.0, 1.0));
	float dif = clamp(dot(normalize(vNormal), light), 0.0, 1.0);
	fragColor = vec4(uColor * (0.2 + 0.8*dif), 1.0);
}
` + "\x00"

// meshBuffers holds the GPU buffers of the mesh being drawn.
type meshBuffers struct {
	vao, pos, norm, idx uint32
	count               int32
	version             uint64
}

func (mb *meshBuffers) upload(m *gmesh.Mesh, posAttrib, normAttrib uint32) {
	if mb.vao == 0 {
		gl.GenVertexArrays(1, &mb.vao)
		gl.GenBuffers(1, &mb.pos)
		gl.GenBuffers(1, &mb.norm)
		gl.GenBuffers(1, &mb.idx)
	}
	gl.BindVertexArray(mb.vao)
	positions := m.PositionBuffer()
	gl.BindBuffer(gl.ARRAY_BUFFER, mb.pos)
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(positions), gl.Ptr(positions), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(posAttrib)
	gl.VertexAttribPointer(posAttrib, 3, gl.FLOAT, false, 0, gl.PtrOffset(0))

	normals := m.NormalBuffer()
	gl.BindBuffer(gl.ARRAY_BUFFER, mb.norm)
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(normals), gl.Ptr(normals), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(normAttrib)
	gl.VertexAttribPointer(normAttrib, 3, gl.FLOAT, false, 0, gl.PtrOffset(0))

	indices := m.IndexBuffer()
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, mb.idx)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 4*len(indices), gl.Ptr(indices), gl.STATIC_DRAW)
	mb.count = int32(len(indices))
}

func (mb *meshBuffers) delete() {
	if mb.vao == 0 {
		return
	}
	gl.DeleteBuffers(1, &mb.pos)
	gl.DeleteBuffers(1, &mb.norm)
	gl.DeleteBuffers(1, &mb.idx)
	gl.DeleteVertexArrays(1, &mb.vao)
}

func ui(state *ViewerState, cfg UIConfig) error {
	window, term, err := startGLFW(cfg.Viewer.Width, cfg.Viewer.Height)
	if err != nil {
		return err
	}
	defer term()
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   vertexSource,
		Fragment: fragmentSource,
	})
	if err != nil {
		return fmt.Errorf("compiling mesh shader: %w", err)
	}
	prog.Bind()
	uniforms := make(map[string]int32)
	for _, name := range []string{"uModel", "uView", "uProj", "uColor"} {
		loc, err := prog.UniformLocation(name + "\x00")
		if err != nil {
			return err
		}
		uniforms[name] = loc
	}
	posAttrib, err := prog.AttribLocation("aPos\x00")
	if err != nil {
		return err
	}
	normAttrib, err := prog.AttribLocation("aNormal\x00")
	if err != nil {
		return err
	}

	logger := cfg.Logger
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch {
		case key == glfw.KeyEscape:
			w.SetShouldClose(true)
		case key == glfw.KeyX || key == glfw.KeyY || key == glfw.KeyZ:
			axis := AxisX + Axis(key-glfw.KeyX)
			if err := state.SetAxis(axis); err != nil {
				logger.Warn("setting rotation axis", "axis", axis.String(), "err", err)
				return
			}
			logger.Info("rotation axis", "axis", axis.String())
		case key >= glfw.Key1 && key <= glfw.Key9:
			err := state.SelectIndex(int(key - glfw.Key1))
			if err != nil {
				logger.Warn("selecting shape", "key", int(key-glfw.Key0), "err", err)
				return
			}
			logger.Info("selected shape", "shape", state.Shape().String())
		}
	})

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
	gl.ClearColor(0.5, 0.5, 0.5, 1.0)

	var buffers meshBuffers
	defer buffers.delete()
	ctx := cfg.Context
	for !window.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		mesh, version := state.Mesh()
		if version != buffers.version {
			buffers.upload(mesh, posAttrib, normAttrib)
			buffers.version = version
		}
		width, height := window.GetFramebufferSize()
		gl.Viewport(0, 0, int32(width), int32(height))
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		state.Advance()
		model, view, proj := state.Matrices(float32(width) / float32(max(height, 1)))
		prog.Bind()
		gl.UniformMatrix4fv(uniforms["uModel"], 1, false, &model[0])
		gl.UniformMatrix4fv(uniforms["uView"], 1, false, &view[0])
		gl.UniformMatrix4fv(uniforms["uProj"], 1, false, &proj[0])
		gl.Uniform3f(uniforms["uColor"], 0, 1, 0)

		gl.BindVertexArray(buffers.vao)
		gl.DrawElements(gl.TRIANGLES, buffers.count, gl.UNSIGNED_INT, gl.PtrOffset(0))
		window.SwapBuffers()
		glfw.PollEvents()
		time.Sleep(time.Second / 60)
	}
	return nil
}

func startGLFW(width, height int) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	window, err = glfw.CreateWindow(width, height, "gmesh viewer", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	log.Println("OpenGL", gl.GoStr(gl.GetString(gl.VERSION)))
	return window, glfw.Terminate, nil
}
