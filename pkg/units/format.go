package units

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

func pow(x, p float64) float64 {
	if p == 1 {
		return x
	}
	return math.Pow(x, p)
}

// Format is Default.Format.
func Format(d Dimension, magnitude float64, preferred string) (float64, string, error) {
	return Default.Format(d, magnitude, preferred)
}

// Format converts a base-unit magnitude to a display magnitude and spelling.
//
// A non-empty preferred spelling is used when it measures d; a mismatch is an
// error. Otherwise the registered units (and their squares and cubes) that
// measure d are searched for the multiplier closest to the magnitude. A
// compound symbol is never raised to a power, since "m/s^2" would read back
// as a different unit. When
// nothing matches, the raw compound spelling of d is returned with the
// magnitude unchanged.
func (r *Registry) Format(d Dimension, magnitude float64, preferred string) (float64, string, error) {
	if preferred != "" {
		u, err := r.Parse(preferred)
		if err != nil {
			return 0, "", err
		}
		if u.Dimension != d {
			return 0, "", &Error{
				Spelling: preferred,
				Reason:   fmt.Sprintf("cannot display %s as %s", describe(d), describe(u.Dimension)),
			}
		}
		return u.FromBase(magnitude), preferred, nil
	}

	for power := 1; power <= 3; power++ {
		root := d.Pow(1 / float64(power))
		if power > 1 && root.Pow(float64(power)) != d {
			continue
		}
		cands := r.Candidates(root)
		if power > 1 {
			cands = slices.DeleteFunc(slices.Clone(cands), func(u Unit) bool {
				return strings.ContainsAny(u.Symbol, unitOperators)
			})
		}
		if len(cands) == 0 {
			continue
		}
		best := closest(cands, magnitude, float64(power))
		symbol := best.Symbol
		if power > 1 {
			symbol += "^" + strconv.Itoa(power)
		}
		return magnitude / pow(best.Multiplier, float64(power)), symbol, nil
	}

	return magnitude, d.String(), nil
}

// closest picks the candidate whose powered multiplier is nearest the
// magnitude. Zero and non-finite magnitudes prefer a unit multiplier.
func closest(cands []Unit, magnitude, power float64) Unit {
	target := math.Abs(magnitude)
	if target == 0 || math.IsInf(target, 0) || math.IsNaN(target) {
		for _, c := range cands {
			if c.Multiplier == 1 {
				return c
			}
		}
		return cands[0]
	}
	best := cands[0]
	bestDist := math.Abs(target - pow(best.Multiplier, power))
	for _, c := range cands[1:] {
		if dist := math.Abs(target - pow(c.Multiplier, power)); dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best
}

// Describe is the display spelling of d at unit magnitude, used in messages.
func Describe(d Dimension) string {
	return describe(d)
}

func describe(d Dimension) string {
	if d.IsDimensionless() {
		return "unitless"
	}
	_, s, _ := Default.Format(d, 1, "")
	return s
}
