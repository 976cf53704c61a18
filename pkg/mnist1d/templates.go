package mnist1d

// templateLen is the number of control points in each digit template. The
// templates are coarse strokes of the digits 0-9, traced left to right, that
// survive heavy downsampling while remaining visually distinct as 1-D
// signals.
const templateLen = 12

var templates = [10][templateLen]float64{
	// 0: two symmetric lobes
	{0.0, 0.6, 1.0, 0.6, 0.0, -0.6, -1.0, -0.6, 0.0, 0.6, 1.0, 0.6},
	// 1: single sharp spike
	{0.0, 0.0, 0.0, 0.2, 1.0, 0.2, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0},
	// 2: rise, dip, rising tail
	{-0.4, 0.4, 1.0, 0.4, -0.4, -1.0, -0.4, 0.0, 0.4, 0.7, 1.0, 1.0},
	// 3: two bumps on the right
	{0.0, 0.3, 1.0, 0.3, 0.0, 0.3, 1.0, 0.3, 0.0, -0.3, -0.6, -0.3},
	// 4: plateau with a late spike
	{0.5, 0.5, 0.5, 0.5, -0.5, -0.5, 1.0, 1.0, -0.5, -0.5, -0.5, -0.5},
	// 5: falling edge then bowl
	{1.0, 1.0, 0.4, -0.2, -0.8, -1.0, -0.8, -0.2, 0.4, 0.6, 0.4, 0.0},
	// 6: descent into a loop
	{0.8, 0.4, 0.0, -0.4, -0.8, -1.0, -0.6, 0.0, 0.4, 0.0, -0.6, -1.0},
	// 7: step down staircase
	{1.0, 1.0, 0.7, 0.4, 0.1, -0.2, -0.5, -0.7, -0.9, -1.0, -1.0, -1.0},
	// 8: two full oscillations
	{0.0, 1.0, 0.0, -1.0, 0.0, 1.0, 0.0, -1.0, 0.0, 1.0, 0.0, -1.0},
	// 9: loop then descending tail
	{0.0, 0.6, 1.0, 0.6, 0.0, 0.3, 0.6, 0.3, 0.0, -0.4, -0.8, -1.0},
}
