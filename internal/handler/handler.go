// Package handler is the HTTP layer, the first entry point after the router.
//
// Every catalog route runs through the typed Handle pipeline: the body is
// bound and validated, the service is called, and the result is written as
// JSON. Errors are returned untouched for the global error handler.
package handler
