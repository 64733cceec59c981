// Package domain models gridded climate data and the typed vocabulary shared
// by the bias-correction and downscaling engines.
//
// # Data Conventions
//
// Arrays:
//
//	Gridded series carry dimensions (time, lat, lon) in row-major order with
//	labeled coordinates on every dimension. Arrays are immutable by
//	convention: every transform returns a new Array and never mutates its
//	input values.
//
// Calendar:
//
//	All time axes use the CMIP "noleap" calendar: exactly 365 days per year,
//	February 29 never present. Time labels are ISO dates ("2020-01-31").
//	Day-of-year is therefore stable across years, in [1, 365], which is what
//	makes pooled seasonal windows well defined.
//
// Seasonal windows:
//
//	Distribution statistics pool samples by day-of-year group: for a center
//	day d, all time steps whose day-of-year lies within a symmetric tolerance
//	of d, across every year, wrapping around the year boundary (day 365 and
//	day 1 are one day apart).
//
// Kinds:
//
//	Every trained model is tagged "additive" or "multiplicative". Additive is
//	used for temperature-like variables (shift-invariant), multiplicative for
//	precipitation-like variables (ratio-invariant, bounded below by zero).
//
// Wet days:
//
//	A day is "dry" when precipitation is below 0.05 mm/day. The dry-day
//	fraction is a distributional property that downscaling must preserve; see
//	the postprocess package.
//
// # Selection Encoding
//
// CLI selections arrive as "dim=start,stop" strings. Label selections follow
// the inclusive-stop convention of coordinate lookups; index selections are
// half-open [start, stop). Both parse eagerly into typed slices before any
// engine runs.
package domain
