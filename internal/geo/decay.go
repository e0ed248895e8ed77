package geo

// Decay constants for walking-distance preference.
const (
	// WalkingRadiusKm is the largest search radius that still rewards
	// proximity. Beyond it the radius is a hard cutoff only.
	WalkingRadiusKm = 3

	// DecayCoefficient controls how sharply scores fall off with distance
	// inside a walking radius.
	DecayCoefficient = 0.4
)

// DecayFactor returns the multiplicative score adjustment for a restaurant
// at distanceKm from the origin with the given search radius.
//
// Soft decay applies only when the radius is within walking distance
// (radiusKm <= 3): factor = max(0, 1 - 0.4 * distance/radius). For larger
// radii proximity inside the radius is not rewarded and the factor is 1.
func DecayFactor(distanceKm, radiusKm float64) float64 {
	if radiusKm <= 0 || radiusKm > WalkingRadiusKm {
		return 1.0
	}
	factor := 1.0 - DecayCoefficient*distanceKm/radiusKm
	if factor < 0 {
		return 0
	}
	return factor
}

// WithinRadius reports whether distanceKm passes the hard radius cutoff.
// A non-positive radius means no cutoff.
func WithinRadius(distanceKm, radiusKm float64) bool {
	if radiusKm <= 0 {
		return true
	}
	return distanceKm <= radiusKm
}
