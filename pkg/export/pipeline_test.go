package export

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photomark/photomark/pkg/imageio"
	"github.com/photomark/photomark/pkg/watermark"
)

func writeSource(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	img := imaging.New(w, h, color.NRGBA{R: 20, G: 120, B: 220, A: 255})
	require.NoError(t, imageio.EncodeFile(path, img, imageio.Options{Format: imageio.PNG}))
	return path
}

func testJob(t *testing.T, sources []string) Job {
	t.Helper()
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()
	return Job{
		Sources:    sources,
		Descriptor: watermark.DefaultDescriptor(),
		Options:    opts,
	}
}

func TestRunExportsAllSources(t *testing.T) {
	srcDir := t.TempDir()
	sources := []string{
		writeSource(t, srcDir, "a.png", 200, 150),
		writeSource(t, srcDir, "b.png", 300, 100),
	}
	job := testJob(t, sources)

	p := NewPipeline(watermark.NewCompositor(), 2)
	report, err := p.Run(context.Background(), job, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Done)
	assert.Equal(t, 0, report.Failed)
	for _, item := range report.Items {
		assert.Equal(t, StatusDone, item.Status)
		assert.FileExists(t, item.Output)
		assert.NotEmpty(t, item.ID)
	}
	// Default naming appends the suffix.
	assert.Equal(t, "a_watermarked.png", filepath.Base(report.Items[0].Output))
}

func TestRunAppliesResize(t *testing.T) {
	srcDir := t.TempDir()
	job := testJob(t, []string{writeSource(t, srcDir, "big.png", 800, 600)})
	job.Options.Resize = Resize{Mode: ResizePercent, Percent: 50}

	p := NewPipeline(watermark.NewCompositor(), 1)
	report, err := p.Run(context.Background(), job, nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.Done)

	w, h, err := imageio.Sniff(report.Items[0].Output)
	require.NoError(t, err)
	assert.Equal(t, 400, w)
	assert.Equal(t, 300, h)
}

func TestRunRefusesOutputIntoSourceDir(t *testing.T) {
	srcDir := t.TempDir()
	job := testJob(t, []string{writeSource(t, srcDir, "a.png", 100, 100)})
	job.Options.OutputDir = srcDir

	p := NewPipeline(watermark.NewCompositor(), 1)
	report, err := p.Run(context.Background(), job, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Done)
	assert.Equal(t, 1, report.Failed)
	assert.ErrorIs(t, report.Items[0].Err, ErrOverwriteRefused)
}

func TestRunRefusesExactSourceOverwriteEvenWhenAllowed(t *testing.T) {
	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "a.png", 100, 100)

	job := testJob(t, []string{src})
	job.Options.OutputDir = srcDir
	job.Options.Naming = Naming{Mode: NamingKeep}
	job.Options.AllowSourceOverwrite = true

	p := NewPipeline(watermark.NewCompositor(), 1)
	report, err := p.Run(context.Background(), job, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, report.Items[0].Err, ErrOverwriteRefused)
}

func TestRunAllowsSourceDirWhenOptedIn(t *testing.T) {
	srcDir := t.TempDir()
	job := testJob(t, []string{writeSource(t, srcDir, "a.png", 100, 100)})
	job.Options.OutputDir = srcDir
	job.Options.AllowSourceOverwrite = true

	p := NewPipeline(watermark.NewCompositor(), 1)
	report, err := p.Run(context.Background(), job, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Done)
	assert.FileExists(t, filepath.Join(srcDir, "a_watermarked.png"))
}

func TestRunContinuesPastBrokenSource(t *testing.T) {
	srcDir := t.TempDir()
	sources := []string{
		writeSource(t, srcDir, "good1.png", 120, 90),
		filepath.Join(srcDir, "broken.png"),
		writeSource(t, srcDir, "good2.png", 120, 90),
	}
	require.NoError(t, os.WriteFile(sources[1], []byte("garbage"), 0644))

	job := testJob(t, sources)
	p := NewPipeline(watermark.NewCompositor(), 2)
	report, err := p.Run(context.Background(), job, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Done)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, StatusFailed, report.Items[1].Status)
	assert.ErrorIs(t, report.Items[1].Err, imageio.ErrDecode)
}

func TestRunDetectsNameCollision(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	sources := []string{
		writeSource(t, dirA, "same.png", 50, 50),
		writeSource(t, dirB, "same.png", 50, 50),
	}

	job := testJob(t, sources)
	p := NewPipeline(watermark.NewCompositor(), 2)
	report, err := p.Run(context.Background(), job, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Done)
	assert.Equal(t, 1, report.Failed)
	assert.ErrorIs(t, report.Items[1].Err, ErrOverwriteRefused)
}

func TestRunReportsProgress(t *testing.T) {
	srcDir := t.TempDir()
	sources := []string{
		writeSource(t, srcDir, "a.png", 60, 60),
		writeSource(t, srcDir, "b.png", 60, 60),
		writeSource(t, srcDir, "c.png", 60, 60),
	}
	job := testJob(t, sources)

	var calls int
	var lastCompleted int
	p := NewPipeline(watermark.NewCompositor(), 1)
	_, err := p.Run(context.Background(), job, func(completed, total int, item ItemResult) {
		calls++
		lastCompleted = completed
		assert.Equal(t, 3, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, lastCompleted)
}

func TestRunCancelled(t *testing.T) {
	srcDir := t.TempDir()
	var sources []string
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		sources = append(sources, writeSource(t, srcDir, name, 80, 80))
	}
	job := testJob(t, sources)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(watermark.NewCompositor(), 1)
	report, err := p.Run(ctx, job, nil)
	require.NoError(t, err)
	assert.Equal(t, len(sources), report.Failed+report.Done)
	assert.Equal(t, len(sources), report.Failed)
}

func TestRunDeterministic(t *testing.T) {
	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "a.png", 150, 100)

	p := NewPipeline(watermark.NewCompositor(), 1)

	run := func() []byte {
		job := testJob(t, []string{src})
		report, err := p.Run(context.Background(), job, nil)
		require.NoError(t, err)
		require.Equal(t, 1, report.Done)
		data, err := os.ReadFile(report.Items[0].Output)
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, run(), run(), "same job produced different bytes")
}

func TestRunRejectsBadInput(t *testing.T) {
	p := NewPipeline(watermark.NewCompositor(), 1)

	job := testJob(t, nil)
	_, err := p.Run(context.Background(), job, nil)
	assert.Error(t, err)

	job = testJob(t, []string{"a.png"})
	job.Options.OutputDir = ""
	_, err = p.Run(context.Background(), job, nil)
	assert.Error(t, err)
}

func TestCollectSources(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0755))

	writeSource(t, dir, "b.png", 10, 10)
	writeSource(t, dir, "a.png", 10, 10)
	writeSource(t, sub, "c.png", 10, 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	paths, err := CollectSources(dir)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, "a.png", filepath.Base(paths[0]))
	assert.Equal(t, "b.png", filepath.Base(paths[1]))
	assert.Equal(t, "c.png", filepath.Base(paths[2]))
}
