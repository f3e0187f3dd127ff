package graphics

import "errors"

var (
	// ErrInvalidArgument is returned by setters that reject their input;
	// the graphics is left unchanged.
	ErrInvalidArgument = errors.New("graphics: invalid argument")
	// ErrWrongType is returned by typed accessors called on a graphics of
	// another type.
	ErrWrongType = errors.New("graphics: attribute not valid for graphics type")
)
