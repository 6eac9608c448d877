// Package stats computes descriptive statistics of a table and renders them
// as markdown, JSON or plain text.
//
// Numeric columns get count, mean, sample standard deviation, min, quartiles
// and max; string columns get count, number of distinct values, the most
// frequent value and its frequency.
package stats
