// Package testutil provides shared test utilities for taskboard.
//
// # Fixtures
//
//   - SampleTasks() - a fresh copy of a small mixed-column board
//   - SampleConfigYAML - a config.yaml using the memory driver
//
// # Environment Helpers
//
//   - SetupTestDir(t) - creates a temp directory with a .taskboard directory
//   - NewRedis(t) - starts an in-process redis and returns its URL
//   - FindProjectRoot(t) - finds the directory holding go.mod
//   - MustMarshalJSON(t, v) / MustUnmarshalJSON(t, data, v)
//   - WriteTestFile(t, base, path, content)
//
// # Assertions
//
//   - AssertTasksEqual(t, expected, actual) - compares task slices in order
//   - AssertCounts(t, tasks, todo, progress, done) - per-column counts
//   - AssertColumnOrder(t, tasks, status, ids...) - card order in one column
//
// # Timeouts
//
//   - BrowserContext(t), ShortOperationContext(t) - capped by the test deadline
//   - Remaining(ctx, fallback) - time left, for APIs that take timeouts
//
// # Usage
//
//	func TestSomething(t *testing.T) {
//	    dir := testutil.SetupTestDir(t)
//	    ctx, cancel := testutil.ShortOperationContext(t)
//	    defer cancel()
//	    // ... run test ...
//	    testutil.AssertCounts(t, tasks, 2, 1, 1)
//	}
package testutil
