package mesh

import "github.com/ungerik/go3d/float64/vec3"

// ComputeNormals recomputes face normals and area-weighted vertex normals
// from the current positions.
func (t *Tile) ComputeNormals() {
	if cap(t.FaceNormals) < len(t.Faces) {
		t.FaceNormals = make([]vec3.T, len(t.Faces))
	}
	t.FaceNormals = t.FaceNormals[:len(t.Faces)]

	if cap(t.Normals) < len(t.Positions) {
		t.Normals = make([]vec3.T, len(t.Positions))
	}
	t.Normals = t.Normals[:len(t.Positions)]
	clear(t.Normals)

	for f, face := range t.Faces {
		a, b, c := t.Positions[face.A], t.Positions[face.B], t.Positions[face.C]
		// length is twice the face area
		cb, ab := vec3.Sub(&c, &b), vec3.Sub(&a, &b)
		n := vec3.Cross(&cb, &ab)
		t.FaceNormals[f] = Normalize(n)
		t.Normals[face.A].Add(&n)
		t.Normals[face.B].Add(&n)
		t.Normals[face.C].Add(&n)
	}

	for k := range t.Normals {
		t.Normals[k] = Normalize(t.Normals[k])
	}
}
