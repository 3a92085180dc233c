package mesh_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/eak1mov/go-terraintiles/elevation"
	"github.com/eak1mov/go-terraintiles/mesh"
	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/ungerik/go3d/float64/vec3"
)

var testTile = tile.ID{X: 22520, Y: 52400, Z: 17}

func field(n int, h func(x, y int) float64) *elevation.Field {
	f := &elevation.Field{Width: n, Height: n}
	for y := range n {
		for x := range n {
			f.Heights = append(f.Heights, h(x, y))
		}
	}
	return f
}

func approx(tol float64) cmp.Option {
	return cmpopts.EquateApprox(0, tol)
}

func TestBuildFlat(t *testing.T) {
	m, err := mesh.Build(testTile, nil, nil, 100, vec3.T{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := []vec3.T{{-50, 50, 0}, {50, 50, 0}, {-50, -50, 0}, {50, -50, 0}}
	if diff := cmp.Diff(want, m.Positions); diff != "" {
		t.Errorf("Positions mismatch (-want+got):\n%v", diff)
	}
	if len(m.Faces) != 2 || m.Segments != 1 {
		t.Errorf("got %d faces and %d segments, want 2 and 1", len(m.Faces), m.Segments)
	}
	for k, n := range m.Normals {
		if diff := cmp.Diff(mesh.Up, n, approx(1e-12)); diff != "" {
			t.Errorf("Normals[%d] mismatch (-want+got):\n%v", k, diff)
		}
	}
	if m.FaceColors != nil {
		t.Errorf("FaceColors set before classification")
	}
}

func TestBuildTopography(t *testing.T) {
	m, err := mesh.Build(testTile, nil, field(64, func(x, y int) float64 { return 100 }), 305.7, vec3.T{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(m.Positions) != 4096 || len(m.Faces) != 63*63*2 || m.Segments != 63 {
		t.Errorf("got %d vertices, %d faces, %d segments", len(m.Positions), len(m.Faces), m.Segments)
	}
}

func TestBuildNonSquare(t *testing.T) {
	for _, count := range []int{0, 2, 10, 4095} {
		f := &elevation.Field{Heights: make([]float64, count)}
		if _, err := mesh.Build(testTile, nil, f, 100, vec3.T{}); !errors.Is(err, mesh.ErrNonSquareElevationField) {
			t.Errorf("Build(%d samples) error = %v, want ErrNonSquareElevationField", count, err)
		}
	}
}

func TestBuildSingleSample(t *testing.T) {
	m, err := mesh.Build(testTile, nil, &elevation.Field{Heights: []float64{5}, Width: 1, Height: 1}, 100, vec3.T{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := []vec3.T{{-50, 50, 5}, {50, 50, 5}, {-50, -50, 5}, {50, -50, 5}}
	if diff := cmp.Diff(want, m.Positions); diff != "" {
		t.Errorf("Positions mismatch (-want+got):\n%v", diff)
	}
	if len(m.Faces) != 2 || m.Segments != 1 {
		t.Errorf("got %d faces and %d segments, want 2 and 1", len(m.Faces), m.Segments)
	}
	for k, n := range m.Normals {
		if diff := cmp.Diff(mesh.Up, n, approx(1e-12)); diff != "" {
			t.Errorf("Normals[%d] mismatch (-want+got):\n%v", k, diff)
		}
	}
}

func TestBuildVertexOrder(t *testing.T) {
	m, err := mesh.Build(testTile, nil, field(3, func(x, y int) float64 { return float64(y*3 + x) }), 10, vec3.T{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for y := range 3 {
		for x := range 3 {
			if got, want := m.Height(x, y), float64(y*3+x); got != want {
				t.Errorf("Height(%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
	if diff := cmp.Diff(vec3.T{-5, 5, 0}, m.Positions[0]); diff != "" {
		t.Errorf("north-west vertex mismatch (-want+got):\n%v", diff)
	}
	if diff := cmp.Diff(vec3.T{5, -5, 8}, m.Positions[8]); diff != "" {
		t.Errorf("south-east vertex mismatch (-want+got):\n%v", diff)
	}
	if diff := cmp.Diff([2]float64{0, 1}, m.UVs[0]); diff != "" {
		t.Errorf("UVs[0] mismatch (-want+got):\n%v", diff)
	}
	if diff := cmp.Diff([2]float64{1, 0}, m.UVs[8]); diff != "" {
		t.Errorf("UVs[8] mismatch (-want+got):\n%v", diff)
	}
}

func TestNormalsFollowSlope(t *testing.T) {
	// height rises one meter per meter eastwards: a 45 degree slope facing west
	m, err := mesh.Build(testTile, nil, field(5, func(x, y int) float64 { return float64(x) * 2.5 }), 10, vec3.T{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := mesh.Normalize(vec3.T{-1, 0, 1})
	for f, n := range m.FaceNormals {
		if diff := cmp.Diff(want, n, approx(1e-9)); diff != "" {
			t.Errorf("FaceNormals[%d] mismatch (-want+got):\n%v", f, diff)
		}
	}
	if diff := cmp.Diff(want, m.Normals[12], approx(1e-9)); diff != "" {
		t.Errorf("center vertex normal mismatch (-want+got):\n%v", diff)
	}
}

func TestWorldPosition(t *testing.T) {
	m, err := mesh.Build(testTile, nil, field(2, func(x, y int) float64 { return 7 }), 100, vec3.T{10, 0, 20})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	// north-west corner: west is -x, north is -z, up is +y
	if diff := cmp.Diff(vec3.T{-40, 7, -30}, m.WorldPosition(0)); diff != "" {
		t.Errorf("WorldPosition(0) mismatch (-want+got):\n%v", diff)
	}
	if diff := cmp.Diff(vec3.T{0, 1, 0}, m.WorldNormal(0), approx(1e-12)); diff != "" {
		t.Errorf("WorldNormal(0) mismatch (-want+got):\n%v", diff)
	}
}

func TestPlacement(t *testing.T) {
	got := mesh.Placement(1, -1, 100, 5, 7)
	if diff := cmp.Diff(vec3.T{95, 0, -93}, got); diff != "" {
		t.Errorf("Placement mismatch (-want+got):\n%v", diff)
	}
}

func TestBuffers(t *testing.T) {
	m, err := mesh.Build(testTile, nil, field(3, func(x, y int) float64 { return 0 }), 10, vec3.T{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	b := m.Buffers()
	corners := len(m.Faces) * 3
	if len(b.Positions) != corners*3 || len(b.Normals) != corners*3 || len(b.UVs) != corners*2 {
		t.Errorf("buffer lengths %d/%d/%d for %d corners", len(b.Positions), len(b.Normals), len(b.UVs), corners)
	}
	if b.Colors != nil {
		t.Errorf("Colors = %d values, want nil", len(b.Colors))
	}
}

func TestRelease(t *testing.T) {
	g := mesh.NewGrid(1)
	m, err := mesh.Build(testTile, nil, nil, 10, vec3.T{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	g.Tiles[0][0] = m
	g.Release()
	if m.Positions != nil || m.Faces != nil || m.Texture != nil {
		t.Errorf("tile still holds data after Release")
	}
	if g.Width != 0 || g.Tiles != nil {
		t.Errorf("grid not emptied after Release")
	}
}

func TestWriteOBJ(t *testing.T) {
	g := mesh.NewGrid(3)
	for i := range 3 {
		for j := range 3 {
			m, err := mesh.Build(testTile, nil, field(4, func(x, y int) float64 { return 1 }), 10, mesh.Placement(i-1, j-1, 10, 0, 0))
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			g.Tiles[i][j] = m
		}
	}
	var buf bytes.Buffer
	if err := mesh.WriteOBJ(&buf, g); err != nil {
		t.Fatalf("WriteOBJ failed: %v", err)
	}
	counts := make(map[string]int)
	for line := range strings.Lines(buf.String()) {
		tag, _, _ := strings.Cut(line, " ")
		counts[tag]++
	}
	want := map[string]int{"#": 1, "o": 9, "v": 9 * 16, "vt": 9 * 16, "vn": 9 * 16, "f": 9 * 18}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("line counts mismatch (-want+got):\n%v", diff)
	}
	if !strings.Contains(buf.String(), "f 129/129/129 133/133/133 130/130/130\n") {
		t.Errorf("last tile faces not offset by previous vertex counts")
	}
}
