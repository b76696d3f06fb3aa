package shader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/renderertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"common.wgsl":     {Data: []byte("struct Frame { t: f32 }\n")},
		"fullscreen.wgsl": {Data: []byte("@vertex fn vs_main() {}\n")},
		"tonemap.wgsl":    {Data: []byte("// @oxy:include common.wgsl\n@fragment fn fs_main() {}\n")},
		"a.wgsl":          {Data: []byte("// @oxy:include b.wgsl\n")},
		"b.wgsl":          {Data: []byte("// @oxy:include a.wgsl\n")},
	}
}

func acceptAll(string) error { return nil }

func TestStageMask(t *testing.T) {
	assert.Equal(t, StageType(1), StageVertex)
	assert.Equal(t, StageType(2), StagePixel)
	assert.Equal(t, "Vertex|Pixel", (StageVertex | StagePixel).String())
}

func TestIncludesExpandOnce(t *testing.T) {
	fsys := testFS()
	fsys["twice.wgsl"] = &fstest.MapFile{Data: []byte("// @oxy:include common.wgsl\n// @oxy:include common.wgsl\n")}
	pp := NewPreProcessor(fsys)
	src, err := pp.Process("twice.wgsl")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(src, "struct Frame"))
	assert.Equal(t, []string{"common.wgsl", "twice.wgsl"}, pp.Dependencies())
}

func TestIncludeCycleIsAnError(t *testing.T) {
	_, err := NewPreProcessor(testFS()).Process("a.wgsl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "include cycle")
}

func TestPixelOnlyProgramUsesFullscreenVertex(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	lib := NewLibrary(rec, testFS(), WithValidator(acceptAll))

	p, err := lib.Load(ProgramDesc{Label: "Tonemap", Stages: StagePixel, PixelPath: "tonemap.wgsl"})
	require.NoError(t, err)
	assert.True(t, p.Has(StagePixel))
	assert.False(t, p.Has(StageVertex))
	assert.True(t, p.DependsOn("common.wgsl"))
	assert.True(t, p.DependsOn("fullscreen.wgsl"))

	desc := rec.Programs()[0].Desc
	assert.Contains(t, desc.VertexSource, "vs_main")
	assert.Contains(t, desc.PixelSource, "struct Frame")
	assert.Equal(t, DefaultPixelEntry, desc.PixelEntry)
}

func TestReloadFailureKeepsPreviousProgram(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	fsys := testFS()
	broken := false
	lib := NewLibrary(rec, fsys, WithValidator(func(src string) error {
		if broken && strings.Contains(src, "fs_main") {
			return errors.New("expected ';'")
		}
		return nil
	}))
	p, err := lib.Load(ProgramDesc{Label: "Tonemap", Stages: StagePixel, PixelPath: "tonemap.wgsl"})
	require.NoError(t, err)
	first := p.Handle()

	broken = true
	n, err := lib.Reload("common.wgsl")
	assert.Zero(t, n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected ';'")
	assert.Same(t, first, p.Handle())

	broken = false
	n, err = lib.Reload("common.wgsl")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NotSame(t, first, p.Handle())
	assert.True(t, first.(*renderertest.Program).Released())
}

func TestReloadIgnoresUnrelatedFiles(t *testing.T) {
	lib := NewLibrary(renderertest.NewRecorder(8, 8), testFS(), WithValidator(acceptAll))
	lib.MustLoad(ProgramDesc{Label: "Tonemap", Stages: StagePixel, PixelPath: "tonemap.wgsl"})
	n, err := lib.Reload("a.wgsl")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNagaRejectsInvalidSource(t *testing.T) {
	lib := NewLibrary(renderertest.NewRecorder(8, 8), fstest.MapFS{
		"fullscreen.wgsl": {Data: []byte("@vertex fn vs_main( {\n")},
		"bad.wgsl":        {Data: []byte("@fragment fn fs_main( {\n")},
	})
	_, err := lib.Load(ProgramDesc{Label: "Bad", Stages: StagePixel, PixelPath: "bad.wgsl"})
	assert.Error(t, err)
}

func TestMustLoadPanicsWithContext(t *testing.T) {
	lib := NewLibrary(renderertest.NewRecorder(8, 8), testFS(), WithValidator(acceptAll))
	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.Contains(t, r.(string), "shader: failed to load Missing")
		assert.Contains(t, r.(string), "missing.wgsl")
	}()
	lib.MustLoad(ProgramDesc{Label: "Missing", Stages: StagePixel, PixelPath: "missing.wgsl"})
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	for name, f := range testFS() {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), f.Data, 0o644))
	}
	rec := renderertest.NewRecorder(8, 8)
	lib := NewLibrary(rec, os.DirFS(dir), WithValidator(acceptAll))
	p := lib.MustLoad(ProgramDesc{Label: "Tonemap", Stages: StagePixel, PixelPath: "tonemap.wgsl"})
	first := p.Handle()

	w, err := NewWatcher(lib, dir, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "common.wgsl"), []byte("struct Frame { t: f32, dt: f32 }\n"), 0o644))
	assert.Eventually(t, func() bool {
		prog, _ := lib.Get("Tonemap")
		return prog.Handle() != first
	}, 2*time.Second, 10*time.Millisecond)
}
