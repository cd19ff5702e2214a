package catalogstore

import (
	"fmt"

	"modernc.org/sqlite"
)

// sqliteRegisterCollation installs fn as a named SQLite collation,
// process-wide, before any database connection using it is opened.
// Isolated to its own file since it's the one call site that reaches past
// database/sql into the driver-specific registration API.
func sqliteRegisterCollation(name string, fn func(a, b string) int) {
	err := sqlite.RegisterCollationUtf8(name, func(a, b []byte) int {
		return fn(string(a), string(b))
	})
	if err != nil {
		// Registration only fails on programmer error (bad name, nil
		// func); there is no caller that could recover from it.
		panic(fmt.Sprintf("catalogstore: register %s collation: %v", name, err))
	}
}
