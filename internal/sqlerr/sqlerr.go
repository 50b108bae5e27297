// Package sqlerr specifically handles database driver errors.
//
// It parses cryptic error codes from the database driver and
// converts them into user-friendly messages (e.g., converting
// a "foreign key violation" into a "Not Found" error naming the
// missing reference, or a "unique violation" into a "Conflict").
package sqlerr
