// Package validation checks dataset files and output directories before the
// pipeline reads or writes them, reporting problems as typed application errors.
package validation
