package sandbox

import (
	"strings"

	pkgerrors "sqlquest/pkg/errors"
)

// forbiddenTokens is the denylist applied to every candidate query before it
// reaches the game database. The check is a case-insensitive substring match,
// not a parser: data-mutating and schema verbs, privilege verbs, comment
// delimiters and catalog-probing substrings are all rejected outright.
// The exact token set is a compatibility contract covered by tests; do not
// extend or shrink it casually.
var forbiddenTokens = []string{
	"insert", "delete", "update", "grant",
	"revoke", "create", "alter", "drop",
	"truncate", "/*", "*/", "pg_", "user",
}

// PrepareQuery strips surrounding whitespace and a single trailing statement
// terminator from a candidate query.
func PrepareQuery(query string) string {
	query = strings.TrimSpace(query)
	query = strings.TrimSuffix(query, ";")
	return strings.TrimSpace(query)
}

// Validate rejects a prepared query containing any forbidden token.
// The returned error carries the offending token so callers can report it.
func Validate(query string) error {
	lowered := strings.ToLower(query)
	for _, token := range forbiddenTokens {
		if strings.Contains(lowered, token) {
			return pkgerrors.New(pkgerrors.QueryRejected).WithDetail("token", token)
		}
	}
	return nil
}
