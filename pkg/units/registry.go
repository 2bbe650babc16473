package units

import (
	"math"
	"sort"
)

// Unit is a registered or parsed unit spelling: the dimension it measures and
// the conversion from display magnitude to base-unit magnitude.
type Unit struct {
	// Symbol is the spelling the unit was registered or parsed under.
	Symbol string
	// Dimension is the exponent vector of the unit.
	Dimension Dimension
	// Multiplier converts one display unit to base units.
	Multiplier float64
	// Decibel marks a logarithmic wrapper: display = 10*log10(base/Multiplier).
	Decibel bool
}

// ToBase converts a magnitude in this unit to base units.
func (u Unit) ToBase(x float64) float64 {
	if u.Decibel {
		return math.Pow(10, x/10) * u.Multiplier
	}
	return x * u.Multiplier
}

// FromBase converts a base-unit magnitude to this unit.
func (u Unit) FromBase(x float64) float64 {
	if u.Decibel {
		return 10 * math.Log10(x/u.Multiplier)
	}
	return x / u.Multiplier
}

// Registry resolves unit spellings. The zero value is not usable; use
// NewRegistry or Default.
type Registry struct {
	base   map[string]Unit
	linear map[string]Unit
	// standard holds the units eligible for display, in search order.
	standard []Unit
	byDim    map[Dimension][]Unit
}

// Default is the registry built from the canonical unit tables.
var Default = NewRegistry()

// NewRegistry expands the canonical tables once: SI prefixes within each
// unit's prefix range, plus every alternate and plural spelling.
func NewRegistry() *Registry {
	r := &Registry{
		base:   make(map[string]Unit),
		linear: make(map[string]Unit),
		byDim:  make(map[Dimension][]Unit),
	}

	for _, def := range baseUnits {
		r.base[def.symbol] = Unit{Symbol: def.symbol, Dimension: mustDimension(def.dim), Multiplier: 1}
	}

	var standard []definition
	standard = append(standard, prefixed(siUnits)...)
	standard = append(standard, prefixed(baseUnits)...)
	standard = append(standard, legacyUnits...)

	seen := make(map[string]int)
	for _, def := range standard {
		u := Unit{Symbol: def.symbol, Dimension: mustDimension(def.dim), Multiplier: def.mult}
		if i, ok := seen[def.symbol]; ok {
			r.standard[i] = u
			continue
		}
		seen[def.symbol] = len(r.standard)
		r.standard = append(r.standard, u)
	}
	for _, u := range r.standard {
		r.linear[u.Symbol] = u
		r.byDim[u.Dimension] = append(r.byDim[u.Dimension], u)
	}
	for _, def := range standard {
		r.registerAlternates(def)
	}

	for _, def := range dimensionlessUnits {
		r.linear[def.symbol] = Unit{Symbol: def.symbol, Multiplier: def.mult}
		r.registerAlternates(def)
	}

	return r
}

func (r *Registry) registerAlternates(def definition) {
	dim := mustDimension(def.dim)
	for _, alt := range def.alts {
		plural := alt.plural
		if plural == "" {
			plural = alt.singular + "s"
		}
		for _, spelling := range []string{alt.singular, plural} {
			r.linear[spelling] = Unit{Symbol: spelling, Dimension: dim, Multiplier: def.mult}
		}
	}
}

// prefixed expands each definition with the SI prefixes whose multiplier lies
// inside the definition's prefix range.
func prefixed(defs []definition) []definition {
	var out []definition
	for _, def := range defs {
		lo, hi := def.siMin, def.siMax
		if hi == 0 {
			hi = math.Inf(1)
		}
		for _, p := range siPrefixes {
			if p.mult < lo || p.mult > hi {
				continue
			}
			var alts []alt
			for _, al := range def.alts {
				pa := alt{singular: p.name + al.singular}
				if al.plural != "" {
					pa.plural = p.name + al.plural
				}
				alts = append(alts, pa)
			}
			out = append(out, definition{
				symbol: p.symbol + def.symbol,
				dim:    def.dim,
				mult:   p.mult * def.mult,
				alts:   alts,
			})
		}
	}
	return out
}

// Lookup returns the registered unit for an exact spelling, including base
// units, prefixed forms and alternates.
func (r *Registry) Lookup(spelling string) (Unit, bool) {
	if u, ok := r.base[spelling]; ok {
		return u, true
	}
	u, ok := r.linear[spelling]
	return u, ok
}

// Symbols returns every registered spelling, sorted.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.linear))
	for s := range r.linear {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Candidates returns the display units measuring exactly d, in search order.
func (r *Registry) Candidates(d Dimension) []Unit {
	return r.byDim[d]
}
