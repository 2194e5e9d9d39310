// Package shared holds code used across the processor's packages that
// belongs to no single stage.
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler for asserting on structured log output
//   - FeedFixtures for writing synthetic institutions feeds as CSV or XLSX
//   - the reference scenario rows and the records they clean to
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//		logger, handler := testutil.NewTestLogger(t)
//		fx := testutil.NewFeedFixtures(t.TempDir())
//		path, err := fx.CreateFeedCSV("institutions.csv", testutil.FeedHeader, fx.ScenarioRows())
//		require.NoError(t, err)
//		// ...
//		testutil.AssertNoErrors(t, handler)
//	}
package shared
