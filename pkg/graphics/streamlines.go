package graphics

import (
	"fmt"

	"github.com/chazu/fegraphics/pkg/field"
)

type streamData struct {
	direction             TrackDirection
	length                float64
	colourData            ColourData
	streamVectorField     field.Field
	seedElement           field.Element
	seedNodeset           field.Nodeset
	seedMeshLocationField field.Field
}

// Streamlines is a view of the streamline settings.
type Streamlines struct {
	g *Graphics
	d *streamData
}

// Streamlines returns the streamline settings; ErrWrongType unless
// streamlines.
func (g *Graphics) Streamlines() (Streamlines, error) {
	if p, ok := g.payload.(*streamlinesPayload); ok {
		return Streamlines{g: g, d: &p.stream}, nil
	}
	return Streamlines{}, fmt.Errorf("graphics: streamlines on %s: %w", g.typ, ErrWrongType)
}

func (s Streamlines) TrackDirection() TrackDirection       { return s.d.direction }
func (s Streamlines) TrackLength() float64                 { return s.d.length }
func (s Streamlines) ColourData() ColourData               { return s.d.colourData }
func (s Streamlines) StreamVectorField() field.Field       { return s.d.streamVectorField }
func (s Streamlines) SeedElement() field.Element           { return s.d.seedElement }
func (s Streamlines) SeedNodeset() field.Nodeset           { return s.d.seedNodeset }
func (s Streamlines) SeedMeshLocationField() field.Field   { return s.d.seedMeshLocationField }

func (s Streamlines) SetTrackDirection(d TrackDirection) error {
	if d != TrackForward && d != TrackReverse {
		return fmt.Errorf("graphics: track direction %d: %w", int(d), ErrInvalidArgument)
	}
	if d == s.d.direction {
		return nil
	}
	s.d.direction = d
	s.g.changed(ChangeFullRebuild)
	return nil
}

// SetTrackLength sets the distance integrated from each seed; positive.
func (s Streamlines) SetTrackLength(l float64) error {
	if !(l > 0) {
		return fmt.Errorf("graphics: track length %g: %w", l, ErrInvalidArgument)
	}
	if l == s.d.length {
		return nil
	}
	s.d.length = l
	s.g.changed(ChangeFullRebuild)
	return nil
}

func (s Streamlines) SetColourData(c ColourData) error {
	if c < ColourDataField || c > ColourDataTravelTime {
		return fmt.Errorf("graphics: colour data %d: %w", int(c), ErrInvalidArgument)
	}
	if c == s.d.colourData {
		return nil
	}
	s.d.colourData = c
	s.g.changed(ChangeFullRebuild)
	return nil
}

// SetStreamVectorField sets the field integrated: real with 1-9 components,
// read as up to three vectors of the element dimension.
func (s Streamlines) SetStreamVectorField(f field.Field) error {
	return s.g.setField(&s.d.streamVectorField, f, upTo(9), "stream vector field", ChangeFullRebuild)
}

// SetSeedElement seeds a single streamline in e at the sample location.
func (s Streamlines) SetSeedElement(e field.Element) {
	if e == s.d.seedElement {
		return
	}
	s.d.seedElement = e
	s.g.changed(ChangeFullRebuild)
}

// SetSeedNodeset seeds one streamline per node of ns at the location given
// by the seed mesh location field.
func (s Streamlines) SetSeedNodeset(ns field.Nodeset) {
	if ns == s.d.seedNodeset {
		return
	}
	s.d.seedNodeset = ns
	s.g.changed(ChangeFullRebuild)
}

// SetSeedMeshLocationField sets the stored mesh location field evaluated at
// seed nodes.
func (s Streamlines) SetSeedMeshLocationField(f field.Field) error {
	valid := func(f field.Field) bool { return f.ValueType() == field.ValueTypeMeshLocation }
	return s.g.setField(&s.d.seedMeshLocationField, f, valid, "seed mesh location field", ChangeFullRebuild)
}
