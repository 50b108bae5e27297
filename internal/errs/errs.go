// Package errs define custom error types and utilities.
//
// Its purpose is to create specific error structures..
// (e.g. FieldErrors for request bodies or HTTPError for API responses)..
// to ensure the client receive meaningful, actionable, and consistent..
// error messages.
//
// The catalog taxonomy maps onto it as follows:
//   - MissingData: 400, code MISSING_DATA, no write performed.
//   - Conflict: 409, a record with the same natural key exists.
//   - NotFound: 404, message names the resource kind and the identity.
//   - anything unclassified: 500 with a generic message.
package errs
