// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides a capturing slog handler and
// spreadsheet fixtures built with excelize:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    data := testutil.WorkbookBytes(t, [][]interface{}{testutil.SurveyHeader, {"1", "si", "no", ""}})
//	    // ...
//	    testutil.AssertNoErrors(t, logs)
//	}
package shared
