package thermal

// RawImage is a 2-D grid of integer sensor counts as decoded from the
// raster embedded in a thermal image file. Pixels are stored row-major;
// Pix[y*Width+x] is the sample at column x of row y. A RawImage is
// immutable once decoded.
type RawImage struct {
	Width  int
	Height int
	Pix    []uint16
}

// NewRawImage allocates a raw sample matrix of the given dimensions.
func NewRawImage(width, height int) *RawImage {
	return &RawImage{
		Width:  width,
		Height: height,
		Pix:    make([]uint16, width*height),
	}
}

// At returns the sensor count at (x, y).
func (m *RawImage) At(x, y int) uint16 {
	return m.Pix[y*m.Width+x]
}

// Set stores a sensor count at (x, y).
func (m *RawImage) Set(x, y int, v uint16) {
	m.Pix[y*m.Width+x] = v
}

// TempImage is a 2-D grid of temperatures in Kelvin produced by the
// forward model. It has the same dimensions as the raw matrix it was
// derived from and is never mutated in place.
type TempImage struct {
	Width  int
	Height int
	Pix    []float64
}

// NewTempImage allocates a temperature matrix of the given dimensions.
func NewTempImage(width, height int) *TempImage {
	return &TempImage{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// At returns the temperature at (x, y) in Kelvin.
func (m *TempImage) At(x, y int) float64 {
	return m.Pix[y*m.Width+x]
}

// Set stores a temperature at (x, y).
func (m *TempImage) Set(x, y int, v float64) {
	m.Pix[y*m.Width+x] = v
}
