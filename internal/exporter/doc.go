// Package exporter writes tables to CSV.
//
// The encoding is lossless with respect to the reader in the dataset package:
// floats are printed with the shortest round-tripping representation and
// integral floats keep a trailing ".0" so their column is not re-typed as
// integers on reload.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(logger)
//	err := writer.WriteTable(file, df, exporter.WriteOptions{})
package exporter
