package sqlerr

import "fmt"

// Code is a driver-independent classification of a database error.
type Code string

const (
	Other                     Code = "other"
	UniqueViolation           Code = "unique_violation"
	ForeignKeyViolation       Code = "foreign_key_violation"
	NotNullViolation          Code = "not_null_violation"
	CheckViolation            Code = "check_violation"
	InvalidTextRepresentation Code = "invalid_text_representation"
	NumericValueOutOfRange    Code = "numeric_value_out_of_range"
	StringDataTooLong         Code = "string_data_right_truncation"
	InvalidDatetimeFormat     Code = "invalid_datetime_format"
	DatetimeFieldOverflow     Code = "datetime_field_overflow"
)

// MapCode maps a PostgreSQL SQLSTATE onto a Code.
func MapCode(sqlstate string) Code {
	switch sqlstate {
	case "23505":
		return UniqueViolation
	case "23503":
		return ForeignKeyViolation
	case "23502":
		return NotNullViolation
	case "23514":
		return CheckViolation
	case "22P02":
		return InvalidTextRepresentation
	case "22003":
		return NumericValueOutOfRange
	case "22001":
		return StringDataTooLong
	case "22007":
		return InvalidDatetimeFormat
	case "22008":
		return DatetimeFieldOverflow
	default:
		return Other
	}
}

// IsDataException reports whether the code describes a malformed input value.
func (c Code) IsDataException() bool {
	switch c {
	case InvalidTextRepresentation, NumericValueOutOfRange, StringDataTooLong,
		InvalidDatetimeFormat, DatetimeFieldOverflow:
		return true
	}
	return false
}

// Severity mirrors the PostgreSQL severity levels.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityLog     Severity = "LOG"
)

// MapSeverity maps the severity string reported by the server.
func MapSeverity(severity string) Severity {
	switch Severity(severity) {
	case SeverityFatal, SeverityPanic, SeverityWarning, SeverityNotice,
		SeverityDebug, SeverityInfo, SeverityLog:
		return Severity(severity)
	default:
		return SeverityError
	}
}

// Error is the normalized form of a database error.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	Detail         string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string
	driverErr      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Severity, e.DatabaseCode, e.Message)
}

// Unwrap exposes the driver error to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.driverErr
}
