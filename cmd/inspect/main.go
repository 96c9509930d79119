package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"cone-renderer/internal/animation"
	"cone-renderer/internal/engine"
	"cone-renderer/internal/gles"
	"cone-renderer/internal/mathutil"
	"cone-renderer/internal/mesh"
	"cone-renderer/internal/softgl"
)

func main() {
	from := flag.String("from", "portrait", "Orientation the trace starts from")
	to := flag.String("to", "landscape-left", "Orientation the trace rotates to")
	steps := flag.Int("steps", 10, "Trace samples across one rotation")
	draw := flag.String("draw", "", "Render one frame with this engine (fixed or shader) and print draw stats")
	flag.Parse()

	// Meshes
	cone, disk := mesh.Model()
	for _, m := range []struct {
		name string
		mesh mesh.Mesh
	}{{"cone", cone}, {"disk", disk}} {
		lo, hi := m.mesh.Bounds()
		fmt.Printf("%s: %s, verts=%d, tris=%d\n", m.name, m.mesh.Topology, len(m.mesh.Vertices), m.mesh.Triangles())
		fmt.Printf("    BBox: X[%.3f, %.3f] Y[%.3f, %.3f] Z[%.3f, %.3f]\n", lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])
	}
	fmt.Printf("Interleaved: %d floats, stride %d bytes\n", len(cone.Interleave())+len(disk.Interleave()), mesh.Stride)

	// Orientation table
	fmt.Println("\n--- Orientations ---")
	for _, o := range animation.Orientations {
		up := o.Up()
		q := mathutil.QuatFromVectors(animation.ModelUp, up)
		fmt.Printf("  %-22s up=(%+.0f, %+.0f, %+.0f)  q=(%+.4f, %+.4f, %+.4f, %+.4f)\n",
			o, up[0], up[1], up[2], q[0], q[1], q[2], q[3])
	}

	// Animation trace
	start, err := animation.ParseOrientation(*from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	end, err := animation.ParseOrientation(*to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *steps < 1 {
		*steps = 1
	}
	a := animation.New(animation.DefaultDuration)
	a.Rotate(start)
	a.Update(a.Duration)
	a.Rotate(end)
	fmt.Printf("\n--- %s -> %s over %gs ---\n", start, end, a.Duration)
	dt := a.Duration / float64(*steps)
	for i := 0; i <= *steps; i++ {
		apex := a.Current.Rotate(animation.ModelUp)
		fmt.Printf("  t=%.4f %-9s %5.1f%%  apex=(%+.4f, %+.4f, %+.4f)\n",
			a.Elapsed, a.State(), a.Progress()*100, apex[0], apex[1], apex[2])
		a.Update(dt)
	}

	if *draw == "" {
		return
	}
	variant, err := engine.ParseVariant(*draw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	dev := softgl.New(logger)
	eng, err := engine.New(variant, dev, engine.Config{Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := eng.Initialize(320, 480); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()
	eng.OnRotate(end)
	eng.UpdateAnimation(animation.DefaultDuration)
	dev.ResetStats()
	eng.Render()

	st := dev.Stats()
	fmt.Printf("\n--- %s engine, one frame at 320x480 ---\n", variant)
	fmt.Printf("  clears=%d renderbuffers=%d framebuffers=%d programs=%d shaders=%d\n",
		st.Clears, st.Renderbuffers, st.Framebuffers, st.Programs, st.Shaders)
	for i, dc := range st.DrawCalls {
		fmt.Printf("  draw[%d]: mode=0x%04X first=%d count=%d tris=%d fragments=%d\n",
			i, uint32(dc.Mode), dc.First, dc.Count, dc.Triangles, dc.Fragments)
	}
	if code := dev.GetError(); code != gles.NoError {
		fmt.Printf("  gl error: %s\n", gles.ErrorString(code))
	}
}
