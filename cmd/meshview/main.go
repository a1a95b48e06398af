// main.go
package main

import (
	"flag"
	"log/slog"
	"os"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"

	"meshview/internal/render"
	"meshview/vk"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

// glfwSurface adapts a GLFW window to the renderer's window-system
// interface.
type glfwSurface struct {
	window *glfw.Window
}

func (s *glfwSurface) InstanceExtensions() []string {
	return s.window.GetRequiredInstanceExtensions()
}

func (s *glfwSurface) CreateSurface(instance vk.Instance) (vk.SurfaceKHR, error) {
	handle, err := s.window.CreateWindowSurface(instance.Handle(), nil)
	if err != nil {
		return vk.SurfaceKHR{}, err
	}
	return vk.NewSurfaceKHR(unsafe.Pointer(handle)), nil
}

func (s *glfwSurface) FramebufferSize() (int, int) {
	return s.window.GetFramebufferSize()
}

func main() {
	meshPath := flag.String("mesh", "assets/model.obj", "path to a triangulated OBJ mesh")
	texturePath := flag.String("texture", "assets/texture.png", "path to a PNG texture")
	width := flag.Int("width", 1024, "initial window width")
	height := flag.Int("height", 768, "initial window height")
	title := flag.String("title", "meshview", "window title")
	debug := flag.Bool("debug", false, "enable validation layers and debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(logger, *meshPath, *texturePath, *width, *height, *title, *debug); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, meshPath, texturePath string, width, height int, title string, debug bool) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return err
	}
	defer window.Destroy()

	renderer, err := render.New(&glfwSurface{window: window}, render.Config{
		MeshPath:    meshPath,
		TexturePath: texturePath,
		AppName:     title,
		Debug:       debug,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer renderer.Destroy()

	window.SetFramebufferSizeCallback(func(_ *glfw.Window, _, _ int) {
		renderer.NotifyResize()
	})

	for !window.ShouldClose() {
		glfw.PollEvents()

		// Minimized windows report a zero-sized framebuffer; suspend
		// rendering until the window is restored.
		fbWidth, fbHeight := window.GetFramebufferSize()
		if fbWidth == 0 || fbHeight == 0 {
			glfw.WaitEvents()
			continue
		}

		if err := renderer.DrawFrame(); err != nil {
			return err
		}
	}

	return renderer.WaitIdle()
}
