package track

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/linesim/internal/geom"
)

// trackFile is the on-disk YAML description of a track. The editor that
// produces these files lives outside this module; here we only parse and
// validate.
type trackFile struct {
	Segments []segmentSpec `yaml:"segments"`
}

type segmentSpec struct {
	Type      string     `yaml:"type"` // "line" or "arc"
	From      [2]float64 `yaml:"from,omitempty"`
	To        [2]float64 `yaml:"to,omitempty"`
	Center    [2]float64 `yaml:"center,omitempty"`
	Radius    float64    `yaml:"radius,omitempty"`
	FromAngle float64    `yaml:"from_angle,omitempty"`
	ToAngle   float64    `yaml:"to_angle,omitempty"`
}

func (s segmentSpec) build() (geom.Segment, error) {
	switch s.Type {
	case "line":
		return geom.NewLine(geom.Vec2{X: s.From[0], Y: s.From[1]}, geom.Vec2{X: s.To[0], Y: s.To[1]})
	case "arc":
		return geom.NewArc(geom.Vec2{X: s.Center[0], Y: s.Center[1]}, s.Radius, s.FromAngle, s.ToAngle)
	default:
		return nil, fmt.Errorf("unknown segment type %q", s.Type)
	}
}

// LoadFile reads a YAML track description and builds the closed loop.
func LoadFile(path string) (*Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tf trackFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse track %s: %w", path, err)
	}
	segments := make([]geom.Segment, 0, len(tf.Segments))
	for i, spec := range tf.Segments {
		seg, err := spec.build()
		if err != nil {
			return nil, fmt.Errorf("track %s segment %d: %w", path, i, err)
		}
		segments = append(segments, seg)
	}
	return New(segments)
}

// SaveFile writes the track back out as YAML.
func SaveFile(path string, t *Track) error {
	tf := trackFile{Segments: make([]segmentSpec, 0, len(t.segments))}
	for _, seg := range t.segments {
		switch s := seg.(type) {
		case *geom.Line:
			tf.Segments = append(tf.Segments, segmentSpec{
				Type: "line",
				From: [2]float64{s.Start().X, s.Start().Y},
				To:   [2]float64{s.End().X, s.End().Y},
			})
		case *geom.Arc:
			theta0, theta1 := s.Angles()
			tf.Segments = append(tf.Segments, segmentSpec{
				Type:      "arc",
				Center:    [2]float64{s.Center().X, s.Center().Y},
				Radius:    s.Radius(),
				FromAngle: theta0,
				ToAngle:   theta1,
			})
		default:
			return fmt.Errorf("cannot serialize segment of type %T", seg)
		}
	}
	data, err := yaml.Marshal(&tf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
