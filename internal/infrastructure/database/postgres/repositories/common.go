// Package repositories holds the PostgreSQL persistence layer for extraction
// records and their annotations.
package repositories

// scanner abstracts sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}
