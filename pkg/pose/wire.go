package pose

import (
	"encoding/json"
	"math"

	"github.com/chazu/cadmcp/pkg/frame"
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/go-gl/mathgl/mgl64"
)

// Round2 rounds to 2 decimals, the precision of every point and length
// leaving the system.
func Round2(v float64) float64 {
	return roundTo(v, 100)
}

// Round6 rounds to 6 decimals, the precision of rotation entries.
func Round6(v float64) float64 {
	return roundTo(v, 1e6)
}

func roundTo(v, scale float64) float64 {
	r := math.Round(v*scale) / scale
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// Vec2 rounds a vector to 2 decimals as a slice.
func Vec2(v mgl64.Vec3) []float64 {
	return []float64{Round2(v[0]), Round2(v[1]), Round2(v[2])}
}

// Frame is the world_from_local payload.
type Frame struct {
	R [][]float64 `json:"R"`
	T []float64   `json:"t"`
}

// Wire is the serialized form of a Pose.
type Wire struct {
	WorldFromLocal Frame `json:"world_from_local"`
}

// ToWire rounds p for output.
func (p Pose) ToWire() Wire {
	rows := frame.MatrixRows(p.Rotation)
	for _, row := range rows {
		for j := range row {
			row[j] = Round6(row[j])
		}
	}
	return Wire{WorldFromLocal: Frame{R: rows, T: Vec2(p.Translation)}}
}

// FromWire parses and re-orthonormalizes a serialized pose.
func FromWire(w Wire) (Pose, error) {
	r, err := frame.MatrixFromRows(w.WorldFromLocal.R)
	if err != nil {
		return Pose{}, err
	}
	t, err := frame.VectorFrom("t", w.WorldFromLocal.T)
	if err != nil {
		return Pose{}, err
	}
	if math.Abs(r.Det()) < 1e-6 {
		return Pose{}, protocol.Geometryf("pose rotation is singular")
	}
	return Pose{Rotation: Canonicalize(r), Translation: t}, nil
}

// MarshalJSON writes the rounded wire form.
func (p Pose) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToWire())
}

// UnmarshalJSON reads the wire form.
func (p *Pose) UnmarshalJSON(data []byte) error {
	var w Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return protocol.Invalidf("pose: %v", err)
	}
	parsed, err := FromWire(w)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// OBBWire is the serialized form of an OBB.
type OBBWire struct {
	Extents      []float64   `json:"extents"`
	WorldCorners [][]float64 `json:"world_corners"`
	Pose         Wire        `json:"pose"`
}

// ToWire rounds b for output. Corners are derived from the unrounded pose
// and extents.
func (b OBB) ToWire() OBBWire {
	corners := b.WorldCorners()
	out := OBBWire{
		Extents:      Vec2(b.Extents),
		WorldCorners: make([][]float64, len(corners)),
		Pose:         b.Pose.ToWire(),
	}
	for i, c := range corners {
		out.WorldCorners[i] = Vec2(c)
	}
	return out
}

// MarshalJSON writes the rounded wire form.
func (b OBB) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.ToWire())
}
