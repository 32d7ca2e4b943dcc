// Package services contains server-side business logic: session handling,
// the registration confirmation flow and event roster management.
//
// Services own the transaction boundary. Repositories are obtained from a
// repomanager.RepositoryManager bound either to the pool or to the
// transaction opened by dbx.WithTx.
package services

import "strings"

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
