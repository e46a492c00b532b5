package fb

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagtapper/internal/model"
)

func writeSysfs(t *testing.T, root, dev, name, body string) {
	t.Helper()
	dir := filepath.Join(root, dev)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestReadGeometry_VirtualSize(t *testing.T) {
	root := t.TempDir()
	writeSysfs(t, root, "fb1", "virtual_size", "480,320\n")
	writeSysfs(t, root, "fb1", "modes", "U:800x480p-0\n")

	g, err := ReadGeometry(root, "/dev/fb1")
	require.NoError(t, err)
	assert.Equal(t, Geometry{Width: 480, Height: 320}, g)
}

func TestReadGeometry_ModesFallback(t *testing.T) {
	root := t.TempDir()
	writeSysfs(t, root, "fb0", "virtual_size", "garbage\n")
	writeSysfs(t, root, "fb0", "modes", "U:800x480p-0\nU:640x480p-0\n")

	g, err := ReadGeometry(root, "/dev/fb0")
	require.NoError(t, err)
	assert.Equal(t, Geometry{Width: 800, Height: 480}, g)
}

func TestReadGeometry_Default(t *testing.T) {
	g, err := ReadGeometry(t.TempDir(), "/dev/fb9")
	assert.Error(t, err)
	assert.Equal(t, DefaultGeometry, g)
}

type memRegion struct {
	data    []byte
	flushes int
	closes  int
}

func (m *memRegion) Bytes() []byte { return m.data }
func (m *memRegion) Flush() error  { m.flushes++; return nil }
func (m *memRegion) Close() error  { m.closes++; return nil }

func TestCompositor_WritesWholeFrame(t *testing.T) {
	region := &memRegion{data: make([]byte, 4*2*2)}
	c, err := newCompositor("mem", Geometry{Width: 4, Height: 2}, region)
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	img.Set(3, 1, color.RGBA{255, 0, 0, 255})

	require.NoError(t, c.Composite(img))
	assert.Equal(t, []byte{0xFF, 0xFF}, region.data[0:2])
	assert.Equal(t, []byte{0x00, 0xF8}, region.data[14:16])
}

func TestCompositor_Rescales(t *testing.T) {
	region := &memRegion{data: make([]byte, 8*4*2)}
	c, err := newCompositor("mem", Geometry{Width: 8, Height: 4}, region)
	require.NoError(t, err)

	img := image.NewUniform(color.RGBA{0, 0, 255, 255})
	small := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			small.Set(x, y, img.C)
		}
	}
	require.NoError(t, c.Composite(small))
	for i := 0; i < len(region.data); i += 2 {
		assert.Equal(t, []byte{0x1F, 0x00}, region.data[i:i+2])
	}
}

func TestCompositor_CloseFlushesOnce(t *testing.T) {
	region := &memRegion{data: make([]byte, 8)}
	c, err := newCompositor("mem", Geometry{Width: 2, Height: 2}, region)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, region.flushes)
	assert.Equal(t, 1, region.closes)
	assert.Error(t, c.Composite(image.NewRGBA(image.Rect(0, 0, 2, 2))))
}

func TestCompositor_RegionTooSmall(t *testing.T) {
	region := &memRegion{data: make([]byte, 3)}
	_, err := newCompositor("mem", Geometry{Width: 2, Height: 2}, region)
	assert.ErrorIs(t, err, model.ErrDeviceUnavailable)
	assert.Equal(t, 1, region.closes)
}
