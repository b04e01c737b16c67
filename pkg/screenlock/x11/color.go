package x11

import "strconv"

// parseHexColor parses the "#RGB", "#RRGGBB", "#RRRGGGBBB" and "#RRRRGGGGBBBB" forms.
// Like XParseColor, shorter components are the most significant bits of the 16 bit value.
func parseHexColor(s string) (r, g, b uint16, ok bool) {
	if len(s) < 4 || s[0] != '#' {
		return 0, 0, 0, false
	}

	digits := s[1:]
	if len(digits)%3 != 0 || len(digits) > 12 {
		return 0, 0, 0, false
	}
	n := len(digits) / 3

	var rgb [3]uint16
	for i := range rgb {
		v, err := strconv.ParseUint(digits[i*n:(i+1)*n], 16, 16)
		if err != nil {
			return 0, 0, 0, false
		}
		rgb[i] = uint16(v << (16 - 4*n))
	}

	return rgb[0], rgb[1], rgb[2], true
}
