package graphics

import "fmt"

// Type is the immutable kind of a graphics.
type Type int

const (
	TypeInvalid Type = iota
	TypePoints
	TypeLines
	TypeSurfaces
	TypeContours
	TypeStreamlines
)

// Change is how much of a graphics must be redone after a mutation or an
// external change. Values are ordered: a larger change subsumes a smaller.
type Change int

const (
	ChangeNone Change = iota
	// ChangeRedraw needs no work on the object; the scene repaints.
	ChangeRedraw
	// ChangeRecompile keeps geometry and re-applies appearance.
	ChangeRecompile
	// ChangeSelection re-applies selected-object highlighting.
	ChangeSelection
	// ChangePartialRebuild regenerates the primitives of changed objects.
	ChangePartialRebuild
	// ChangeFullRebuild discards the object and regenerates everything.
	ChangeFullRebuild
)

// SelectMode controls how selection interacts with drawing.
type SelectMode int

const (
	SelectOn SelectMode = iota
	SelectOff
	SelectDrawSelected
	SelectDrawUnselected
)

// SamplingMode chooses sample points within elements.
type SamplingMode int

const (
	SampleCellCentres SamplingMode = iota
	SampleCellCorners
	SampleCellPoisson
	SampleSetLocation
)

// LineShape is the cross-section of lines and streamlines.
type LineShape int

const (
	ShapeLine LineShape = iota
	ShapeRibbon
	ShapeCircleExtrusion
	ShapeSquareExtrusion
)

// TrackDirection is the integration direction of streamlines.
type TrackDirection int

const (
	TrackForward TrackDirection = iota
	TrackReverse
)

// ColourData chooses the data values stored along streamlines.
type ColourData int

const (
	ColourDataField ColourData = iota
	ColourDataMagnitude
	ColourDataTravelTime
)

// RenderCoordinateSystem places graphics relative to the scene or window.
type RenderCoordinateSystem int

const (
	CoordinateSystemLocal RenderCoordinateSystem = iota
	CoordinateSystemWorld
	CoordinateSystemNormalisedWindowFill
	CoordinateSystemWindowPixelBottomLeft
)

type enumNames[T ~int] []string

func (n enumNames[T]) name(v T, kind string) string {
	if int(v) >= 0 && int(v) < len(n) && n[v] != "" {
		return n[v]
	}
	return fmt.Sprintf("%s(%d)", kind, int(v))
}

func (n enumNames[T]) parse(s, kind string) (T, error) {
	for i, name := range n {
		if name != "" && name == s {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q: %w", kind, s, ErrInvalidArgument)
}

var (
	typeNames             = enumNames[Type]{"", "points", "lines", "surfaces", "contours", "streamlines"}
	changeNames           = enumNames[Change]{"none", "redraw", "recompile", "selection", "partial_rebuild", "full_rebuild"}
	selectModeNames       = enumNames[SelectMode]{"on", "off", "draw_selected", "draw_unselected"}
	samplingModeNames     = enumNames[SamplingMode]{"cell_centres", "cell_corners", "cell_poisson", "set_location"}
	lineShapeNames        = enumNames[LineShape]{"line", "ribbon", "circle_extrusion", "square_extrusion"}
	trackDirectionNames   = enumNames[TrackDirection]{"forward", "reverse"}
	colourDataNames       = enumNames[ColourData]{"field", "magnitude", "travel_time"}
	coordinateSystemNames = enumNames[RenderCoordinateSystem]{"local", "world", "normalised_window_fill", "window_pixel_bottom_left"}
)

func (t Type) String() string                   { return typeNames.name(t, "Type") }
func (c Change) String() string                 { return changeNames.name(c, "Change") }
func (m SelectMode) String() string             { return selectModeNames.name(m, "SelectMode") }
func (m SamplingMode) String() string           { return samplingModeNames.name(m, "SamplingMode") }
func (s LineShape) String() string              { return lineShapeNames.name(s, "LineShape") }
func (d TrackDirection) String() string         { return trackDirectionNames.name(d, "TrackDirection") }
func (c ColourData) String() string             { return colourDataNames.name(c, "ColourData") }
func (c RenderCoordinateSystem) String() string { return coordinateSystemNames.name(c, "RenderCoordinateSystem") }

func ParseType(s string) (Type, error)             { return typeNames.parse(s, "graphics type") }
func ParseSelectMode(s string) (SelectMode, error) { return selectModeNames.parse(s, "select mode") }
func ParseSamplingMode(s string) (SamplingMode, error) {
	return samplingModeNames.parse(s, "sampling mode")
}
func ParseLineShape(s string) (LineShape, error) { return lineShapeNames.parse(s, "line shape") }
func ParseTrackDirection(s string) (TrackDirection, error) {
	return trackDirectionNames.parse(s, "track direction")
}
func ParseColourData(s string) (ColourData, error) { return colourDataNames.parse(s, "colour data") }
func ParseRenderCoordinateSystem(s string) (RenderCoordinateSystem, error) {
	return coordinateSystemNames.parse(s, "coordinate system")
}
