// Package errors provides coded, user-facing errors for the docroutes CLI.
//
// Each error carries a code (e.g. "D003") registered with a category, a
// short message and a longer explanation. Errors that stem from a file can
// carry its location; Format then prints the surrounding lines:
//
//	err := errors.New("D004").
//	    WithLocation("build/routes.json", 12, 5).
//	    WithSuggestion("Regenerate the manifest with the site build")
//
//	errors.PrintError(err)
//	// ERROR D004: Manifest could not be parsed
//	//
//	//   build/routes.json:12:5
//	//
//	//     10 │   {
//	//     11 │     "path": "/docs",
//	//   → 12 │     "exact": yes
//	//        │     ^
//	//
//	//   Hint: Regenerate the manifest with the site build
//
// Route table construction problems themselves are typed errors of package
// router; the CLI wraps them with code "D005".
package errors
