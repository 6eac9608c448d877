// Package preprocess cleans raw dataset tables.
//
// Clean runs a fixed, ordered sequence of steps described by Rules: drop
// exact duplicate rows, keep rows inside the validity bounds and outside the
// excluded category, derive ratio columns, replace selected columns by their
// base-10 logarithms and finally drop rows at or below a cut-point on one log
// column. Logs of non-positive values are NaN or -Inf; only the cut-point
// column removes them.
package preprocess
