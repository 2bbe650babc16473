package units

// dims is the compact table form of a dimension vector.
type dims map[string]float64

// alt is an alternate spelling. An empty plural means singular + "s".
type alt struct {
	singular string
	plural   string
}

// definition is one row of a canonical unit table. siMin and siMax bound the
// prefix multipliers applied to the unit; zero means unbounded.
type definition struct {
	symbol string
	dim    dims
	mult   float64
	alts   []alt
	siMin  float64
	siMax  float64
}

func a(singular string) alt          { return alt{singular: singular} }
func ap(singular, plural string) alt { return alt{singular: singular, plural: plural} }

// prefix is an SI prefix.
type prefix struct {
	symbol string
	mult   float64
	name   string
}

var siPrefixes = []prefix{
	{"q", 1e-30, "quecto"},
	{"r", 1e-27, "ronto"},
	{"y", 1e-24, "yocto"},
	{"z", 1e-21, "zepto"},
	{"a", 1e-18, "atto"},
	{"f", 1e-15, "femto"},
	{"p", 1e-12, "pico"},
	{"n", 1e-9, "nano"},
	{"u", 1e-6, "micro"},
	{"m", 1e-3, "milli"},
	{"", 1, ""},
	{"k", 1e3, "kilo"},
	{"M", 1e6, "mega"},
	{"G", 1e9, "giga"},
	{"T", 1e12, "tera"},
	{"P", 1e15, "peta"},
	{"E", 1e18, "exa"},
	{"Z", 1e21, "zetta"},
	{"Y", 1e24, "yotta"},
	{"R", 1e27, "ronna"},
	{"Q", 1e30, "quetta"},
}

var baseUnits = []definition{
	{symbol: "kg", dim: dims{"kg": 1}, mult: 1, alts: []alt{a("kilogram"), a("kilo")}, siMin: 1, siMax: 1},
	{symbol: "m", dim: dims{"m": 1}, mult: 1, alts: []alt{a("meter"), a("metre")}, siMax: 1e3},
	{symbol: "s", dim: dims{"s": 1}, mult: 1, alts: []alt{a("second"), a("sec")}, siMax: 1},
	{symbol: "K", dim: dims{"K": 1}, mult: 1, alts: []alt{a("Kelvin")}, siMin: 1, siMax: 1},
	{symbol: "A", dim: dims{"A": 1}, mult: 1, alts: []alt{a("Ampere"), a("Amp")}},
	{symbol: "b", dim: dims{"b": 1}, mult: 1, alts: []alt{a("bit")}, siMin: 1, siMax: 1},
	{symbol: "$", dim: dims{"$": 1}, mult: 1, alts: []alt{a("dollar")}, siMin: 1, siMax: 1},
	{symbol: "cap", dim: dims{"cap": 1}, mult: 1, alts: []alt{ap("capacity", "capacities")}, siMin: 1, siMax: 1},
	{symbol: "cd", dim: dims{"cd": 1}, mult: 1, alts: []alt{a("candela")}},
	{symbol: "sr", dim: dims{"sr": 1}, mult: 1, alts: []alt{a("steradian")}},
	{symbol: "mol", dim: dims{"mol": 1}, mult: 1, alts: []alt{a("mole")}},
}

// siUnits are derived units that take SI prefixes.
var siUnits = []definition{
	{symbol: "V", dim: dims{"kg": 1, "m": 2, "s": -3, "A": -1}, mult: 1, alts: []alt{a("Volt")}},
	{symbol: "W", dim: dims{"kg": 1, "m": 2, "s": -3}, mult: 1, alts: []alt{a("Watt")}},
	{symbol: "Hz", dim: dims{"s": -1}, mult: 6.283185307179586, alts: []alt{ap("Hertz", "Hertz")}, siMin: 1},
	{symbol: "g", dim: dims{"kg": 1}, mult: 0.001, alts: []alt{a("gram")}},
	{symbol: "cd", dim: dims{"cd": 1}, mult: 1, alts: []alt{a("candela")}},
	{symbol: "J", dim: dims{"kg": 1, "m": 2, "s": -2}, mult: 1, alts: []alt{a("Joule")}},
	{symbol: "Wh", dim: dims{"kg": 1, "m": 2, "s": -2}, mult: 3600, alts: []alt{a("Watt-hour")}},
	{symbol: "Ah", dim: dims{"A": 1, "s": 1}, mult: 3600, alts: []alt{a("Amp-hour")}},
	{symbol: "T", dim: dims{"kg": 1, "s": -2, "A": -1}, mult: 1, alts: []alt{a("Tesla")}},
	{symbol: "Ohm", dim: dims{"kg": 1, "m": 2, "s": -3, "A": -2}, mult: 1, alts: []alt{a("Ohm")}},
	{symbol: "N", dim: dims{"kg": 1, "m": 1, "s": -2}, mult: 1, alts: []alt{a("Newton")}},
	{symbol: "Gs", dim: dims{"kg": 1, "s": -2, "A": -1}, mult: 0.0001, alts: []alt{a("Gauss")}},
	{symbol: "lm", dim: dims{"cd": 1, "sr": 1}, mult: 1, alts: []alt{a("lumen")}},
	{symbol: "lx", dim: dims{"cd": 1, "sr": 1, "m": -2}, mult: 1, alts: []alt{ap("lux", "lux")}},
	{symbol: "bps", dim: dims{"b": 1, "s": -1}, mult: 1, alts: []alt{ap("bit/second", "bits/second")}, siMin: 1},
	{symbol: "B", dim: dims{"b": 1}, mult: 8, alts: []alt{a("byte")}, siMin: 1},
	{symbol: "W/m^2", dim: dims{"kg": 1, "s": -3}, mult: 1, alts: []alt{ap("Watt/meter^2", "Watts/meter^2")}},
	{symbol: "m/s", dim: dims{"m": 1, "s": -1}, mult: 1, alts: []alt{ap("meter/second", "meters/second")}},
	{symbol: "m/s^2", dim: dims{"m": 1, "s": -2}, mult: 1, alts: []alt{ap("meter/second^2", "meters/second^2")}},
}

// legacyUnits never take prefixes.
var legacyUnits = []definition{
	{symbol: "mil.", dim: dims{"s": 1}, mult: 3.1556952e10, alts: []alt{ap("millennium", "millennia")}},
	{symbol: "cen.", dim: dims{"s": 1}, mult: 3.1556952e9, alts: []alt{ap("century", "centuries")}},
	{symbol: "dec.", dim: dims{"s": 1}, mult: 3.1556952e8, alts: []alt{a("decade")}},
	{symbol: "yr", dim: dims{"s": 1}, mult: 3.1556952e7, alts: []alt{a("year")}},
	{symbol: "mon", dim: dims{"s": 1}, mult: 2.629746e6, alts: []alt{a("month")}},
	{symbol: "week", dim: dims{"s": 1}, mult: 6.048e5},
	{symbol: "day", dim: dims{"s": 1}, mult: 8.64e4},
	{symbol: "hr", dim: dims{"s": 1}, mult: 3600, alts: []alt{a("hour")}},
	{symbol: "min", dim: dims{"s": 1}, mult: 60, alts: []alt{a("minute")}},
	{symbol: "°/s", dim: dims{"s": -1}, mult: 0.017453292519943295, alts: []alt{ap("degree/second", "degrees/second")}},
	{symbol: "°/min", dim: dims{"s": -1}, mult: 1.0471975511965976, alts: []alt{ap("degree/minute", "degrees/minute")}},
	{symbol: "°/hr", dim: dims{"s": -1}, mult: 62.83185307179586, alts: []alt{ap("degree/hour", "degrees/hour")}},
	{symbol: "rpm", dim: dims{"s": -1}, mult: 0.10471975511965977, alts: []alt{
		ap("rotation/min", "rotations/min"),
		ap("revolution/minute", "revolutions/minute"),
		ap("revolution/min", "revolutions/min"),
	}},
	{symbol: "k$", dim: dims{"$": 1}, mult: 1e3, alts: []alt{ap("thousand dollars", "thousand dollars")}},
	{symbol: "M$", dim: dims{"$": 1}, mult: 1e6, alts: []alt{ap("million dollars", "million dollars")}},
	{symbol: "B$", dim: dims{"$": 1}, mult: 1e9, alts: []alt{ap("billion dollars", "billion dollars")}},
	{symbol: "T$", dim: dims{"$": 1}, mult: 1e12, alts: []alt{ap("trillion dollars", "trillion dollars")}},
	{symbol: "g_E", dim: dims{"m": 1, "s": -2}, mult: 9.81, alts: []alt{ap("Earth gravity", "Earth gravities")}},
	{symbol: "cm", dim: dims{"m": 1}, mult: 0.01, alts: []alt{a("centimeter")}},
}

// dimensionlessUnits are accepted for parsing but never chosen for display.
var dimensionlessUnits = []definition{
	{symbol: "rev", dim: dims{}, mult: 1, alts: []alt{a("revolution"), a("rotation")}},
	{symbol: "cyc", dim: dims{}, mult: 1, alts: []alt{a("cycle")}},
	{symbol: "rad", dim: dims{}, mult: 1, alts: []alt{a("radian")}},
	{symbol: "°", dim: dims{}, mult: 0.017453292519943295, alts: []alt{ap("deg", "deg"), a("degree")}},
	{symbol: "%", dim: dims{}, mult: 0.01, alts: []alt{ap("percent", "percent")}},
	{symbol: "ppm", dim: dims{}, mult: 1e-6, alts: []alt{ap("part per million", "parts per million")}},
	{symbol: "ppb", dim: dims{}, mult: 1e-9, alts: []alt{ap("part per billion", "parts per billion")}},
	{symbol: "", dim: dims{}, mult: 1},
	{symbol: "'", dim: dims{}, mult: 0.0002908882086657216, alts: []alt{a("arcminute"), a("arcmin")}},
	{symbol: `"`, dim: dims{}, mult: 4.84813681109536e-06, alts: []alt{a("arcsecond"), a("arcsec")}},
}
