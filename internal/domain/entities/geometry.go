// Package entities holds the data the scan lifecycle moves between adapters.
package entities

import "fmt"

// Geometry is a frame size in pixels. Frames are single-channel 8-bit, row-major
// with no padding, so a frame of this geometry is exactly Width*Height bytes.
type Geometry struct {
	Width  int `yaml:"width" json:"width" msgpack:"w"`
	Height int `yaml:"height" json:"height" msgpack:"h"`
}

// QVGA is the negotiated capture geometry of the node.
var QVGA = Geometry{Width: 320, Height: 240}

// Bytes returns the size of one grayscale frame of this geometry.
func (g Geometry) Bytes() int {
	return g.Width * g.Height
}

// Validate checks that both dimensions are positive.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("invalid geometry %s: dimensions must be positive", g)
	}
	return nil
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}
