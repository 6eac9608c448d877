// Package shared holds helpers used across datalab packages that belong to no
// single pipeline stage.
//
// The testutil subpackage provides a capturing slog handler, housing table
// fixtures and in-memory zip and tar.gz builders for archive tests:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    csv := testutil.HousingCSV(testutil.ValidHousingRow(1))
//	    ...
//	}
package shared
