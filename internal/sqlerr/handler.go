package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/bookstore/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

var (
	// Key (award_id)=(1000) is not present in table "awards".
	missingKeyDetail = regexp.MustCompile(`^Key \(([^)]+)\)=\((.*)\) is not present in table "([^"]+)"`)

	// Key (id)=(1) is still referenced from table "books".
	referencedKeyDetail = regexp.MustCompile(`^Key \(([^)]+)\)=\((.*)\) is still referenced from table "([^"]+)"`)

	// Key (last_name, first_name)=(Dostoevsky, Fyodor) already exists.
	duplicateKeyDetail = regexp.MustCompile(`^Key \(([^)]+)\)=\((.*)\) already exists`)

	uniqueConstraintName = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)
)

// ErrCode reports the mapped sqlerr.Code for a given error.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		return MapCode(pgerr.Code)
	}
	return Other
}

// ConvertPgError converts a pgconn.PgError (raw Postgres error) into our custom sqlerr.Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		Detail:         src.Detail,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// generateErrorCode creates consistent "application error codes" from DB errors.
//
// Output format:
//
//	<DOMAIN>_<ACTION>
//
// Example:
//
//	authors + UniqueViolation => AUTHOR_ALREADY_EXISTS
func generateErrorCode(tableName string, errType Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}

	domain := strings.ToUpper(singular(tableName))

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation:
		action = "INVALID"
	}
	if errType.IsDataException() {
		action = "INVALID"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

// formatUserFriendlyMessage produces an end-user-facing error message.
// It never includes the raw driver message.
func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		if m := missingKeyDetail.FindStringSubmatch(sqlErr.Detail); m != nil {
			return fmt.Sprintf("%s %s not found", kindName(m[3]), m[2])
		}
		if m := referencedKeyDetail.FindStringSubmatch(sqlErr.Detail); m != nil {
			return fmt.Sprintf("%s %s is still referenced by %s", kindName(sqlErr.TableName), m[2], strings.ToLower(humanizeText(singular(m[3]))))
		}
		return fmt.Sprintf("The referenced %s does not exist", strings.ToLower(entityName))

	case UniqueViolation:
		return fmt.Sprintf("This %s already exists", strings.ToLower(humanizeText(singular(sqlErr.TableName))))

	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)

	case CheckViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"
	}

	if sqlErr.Code.IsDataException() {
		return "One or more values are invalid"
	}
	return "An error occurred while processing your request"
}

// getEntityName tries to infer an entity name from table/column data.
//
// Priority rules:
//  1. If column ends with "_id", use that base name ("award_id" -> "Award").
//  2. Otherwise use the singular table name.
//  3. Otherwise fallback to "record".
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		entity := strings.TrimSuffix(strings.ToLower(columnName), "_id")
		return humanizeText(entity)
	}

	if tableName != "" {
		return humanizeText(singular(tableName))
	}

	return "record"
}

// kindName turns a table name into the resource kind used in messages,
// "author_awards" -> "AuthorAward".
func kindName(tableName string) string {
	return strings.ReplaceAll(humanizeText(singular(tableName)), " ", "")
}

// singular strips a trailing "s". Good enough for this schema.
func singular(name string) string {
	if len(name) > 1 && strings.HasSuffix(strings.ToLower(name), "s") {
		return name[:len(name)-1]
	}
	return name
}

// humanizeText converts snake_case into Title Case, "first_name" -> "First Name".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// extractColumnsForUniqueViolation lists the columns of a violated unique key.
//
// It prefers the server detail ("Key (a, b)=(...) already exists") and falls
// back to the "<table>_<column>_key" constraint naming convention.
func extractColumnsForUniqueViolation(detail, constraintName string) []string {
	if m := duplicateKeyDetail.FindStringSubmatch(detail); m != nil {
		columns := strings.Split(m[1], ",")
		for i := range columns {
			columns[i] = strings.TrimSpace(columns[i])
		}
		return columns
	}

	if constraintName == "" {
		return nil
	}

	if strings.HasPrefix(constraintName, "unique_") {
		parts := strings.Split(constraintName, "_")
		if len(parts) >= 3 {
			return []string{parts[len(parts)-1]}
		}
	}

	if m := uniqueConstraintName.FindStringSubmatch(constraintName); len(m) > 1 {
		return []string{m[1]}
	}

	return nil
}

// HandleError converts a low-level database error into an application-level error.
//
// Output:
//   - *errs.HTTPError: returned unchanged
//   - unique violation: 409 Conflict
//   - foreign-key violation: 404 Not Found naming the missing reference
//   - not-null, check and data exceptions: 400 Bad Request
//   - no rows: 404 Not Found
//   - anything else: 500 with a generic message
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		sqlErr := ConvertPgError(pgerr)

		errorCode := generateErrorCode(sqlErr.TableName, sqlErr.Code)
		userMessage := formatUserFriendlyMessage(sqlErr)

		switch sqlErr.Code {
		case ForeignKeyViolation:
			if referencedKeyDetail.MatchString(sqlErr.Detail) {
				return errs.NewConflictError(userMessage, true, nil)
			}
			return errs.NewNotFoundError(userMessage, true, &errorCode)

		case UniqueViolation:
			var fieldErrors []errs.FieldError
			for _, column := range extractColumnsForUniqueViolation(sqlErr.Detail, sqlErr.ConstraintName) {
				fieldErrors = append(fieldErrors, errs.FieldError{
					Field: column,
					Error: "already exists",
				})
			}
			conflict := errs.NewConflictError(userMessage, true, &errorCode)
			conflict.Errors = fieldErrors
			return conflict

		case NotNullViolation:
			fieldErrors := []errs.FieldError{
				{
					Field: strings.ToLower(sqlErr.ColumnName),
					Error: "is required",
				},
			}
			return errs.NewBadRequestError(userMessage, true, &errorCode, fieldErrors, nil)

		case CheckViolation:
			return errs.NewBadRequestError(userMessage, true, &errorCode, nil, nil)
		}

		if sqlErr.Code.IsDataException() {
			return errs.NewBadRequestError(userMessage, true, &errorCode, nil, nil)
		}

		return errs.NewInternalServerError()
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) || errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	return errs.NewInternalServerError()
}
