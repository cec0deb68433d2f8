package repo

import (
	"database/sql/driver"

	gosqlite "github.com/glebarez/go-sqlite"
	"golang.org/x/text/cases"
)

// foldFunc is the SQLite function applying foldCase to a text value.
// SQLite's own LOWER() only maps ASCII letters.
const foldFunc = "casefold"

func init() {
	gosqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, sqliteFold)
}

// foldCase applies Unicode full case folding, so "Über" and "üBER" compare
// equal.
func foldCase(s string) string {
	// cases.Caser is stateful; build one per call.
	return cases.Fold().String(s)
}

func sqliteFold(_ *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return foldCase(v), nil
	case []byte:
		return foldCase(string(v)), nil
	default:
		// NULL and non-text values pass through.
		return v, nil
	}
}
