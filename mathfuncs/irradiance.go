package mathfuncs

// BellIrradiance returns a clear-sky irradiance (0-1 suns) for an hour of day.
// Zero overnight, ramping 0.25/h from 06:00, flat at 1.0 between 10:00 and 15:00,
// then ramping down to zero at 19:00.
func BellIrradiance(hour int) float64 {
	h := hour % 24
	if h < 0 {
		h += 24
	}
	switch {
	case h < 6 || h >= 19:
		return 0
	case h < 10:
		return 0.25 * float64(h-5)
	case h < 15:
		return 1.0
	default:
		return 1.0 - 0.25*float64(h-15)
	}
}
