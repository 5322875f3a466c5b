package kernelphase

import "math"

const dtor = math.Pi / 180.0

// Mas2Rad converts milliarcseconds to radians.
func Mas2Rad(x float64) float64 {
	return x * math.Pi / (180 * 3600 * 1000)
}

// Rad2Mas converts radians to milliarcseconds.
func Rad2Mas(x float64) float64 {
	return x / math.Pi * (180 * 3600 * 1000)
}
