package post

import (
	"github.com/mastercactapus/plasmapost/coord"
)

// Event is one call from the CAM host. The set of events is closed.
type Event interface {
	event()
}

type (
	// Open starts the program.
	Open struct{}

	// Close ends the program.
	Close struct{}

	// SectionStart begins one operation.
	SectionStart struct {
		Name   string
		Bounds coord.Bounds
	}

	// SectionEnd finishes the current operation.
	SectionEnd struct{}

	// Rapid is a travel move.
	Rapid struct {
		Target coord.Point
	}

	// Linear is a cutting move. Feed is what the host asked for.
	Linear struct {
		Target coord.Point
		Feed   float64
	}

	// Circular is an arc from the current position.
	Circular struct {
		Clockwise bool
		Plane     coord.Plane
		Center    coord.Point
		End       coord.Point
		Feed      float64
	}

	// Power turns the torch on or off.
	Power struct {
		On bool
	}

	// Dwell pauses motion.
	Dwell struct {
		Seconds float64
	}

	// Parameter is advisory metadata written as a comment.
	Parameter struct {
		Name  string
		Value string
	}
)

func (Open) event()         {}
func (Close) event()        {}
func (SectionStart) event() {}
func (SectionEnd) event()   {}
func (Rapid) event()        {}
func (Linear) event()       {}
func (Circular) event()     {}
func (Power) event()        {}
func (Dwell) event()        {}
func (Parameter) event()    {}
