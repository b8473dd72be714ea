package core

// error_messages.go maps technical errors to operator-facing messages with
// a short code that can be quoted when asking for help.
//
// # Error Codes Reference
//
// Schema and column errors (abort the run):
//
//	SCH001 - Database not found
//	SCH002 - Table not found
//	COL001 - Source columns do not match the table
//
// Value errors (row-scoped):
//
//	VAL001 - Not a whole number
//	VAL002 - Not a decimal number
//	VAL003 - Not an accepted boolean literal
//	VAL004 - Not a YYYY-MM-DD date
//	VAL005 - Blank value in a required field
//
// Database errors:
//
//	DB001 - Duplicate key
//	DB002 - Unique constraint
//	DB003 - Foreign key
//	DB004 - Cannot connect or log in
//	DB005 - Connection reset
//	DB006 - Timeout
//	DB007 - Deadlock
//	DB008 - Value too long for column
//	DB009 - NULL in a NOT NULL column
//
// Runtime errors:
//
//	RUN001 - Too many concurrent runs
//	ERR000 - Anything else; check the logs for the technical error
//
// Typed errors from errors.go are matched first. Everything else is matched
// case-insensitively against driver message patterns, first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgDatabaseMissing = UserMessage{
		Message: "Database not found",
		Action:  "Check the database name and try again",
		Code:    "SCH001",
	}
	msgTableMissing = UserMessage{
		Message: "Table not found in the selected database",
		Action:  "Check the table name and try again",
		Code:    "SCH002",
	}
	msgColumnMismatch = UserMessage{
		Message: "File columns do not match the table",
		Action:  "Rename or remove columns so the headers match the table exactly",
		Code:    "COL001",
	}
	msgConnect = UserMessage{
		Message: "Unable to connect to database",
		Action:  "Check the server name and credentials, then try again",
		Code:    "DB004",
	}
	msgNotNull = UserMessage{
		Message: "A column that does not allow NULL received none",
		Action:  "Provide a value for every NOT NULL column",
		Code:    "DB009",
	}
	msgBlank = UserMessage{
		Message: "Required field is blank",
		Action:  "Fill every column; blank values are not loaded",
		Code:    "VAL005",
	}
)

// coercionMessages is keyed by the category that failed to parse.
var coercionMessages = map[TypeCategory]UserMessage{
	CategoryInteger: {
		Message: "Invalid whole number",
		Action:  "Use digits only, with an optional sign",
		Code:    "VAL001",
	},
	CategoryReal: {
		Message: "Invalid number format",
		Action:  "Use a plain decimal such as 1234.56, without currency symbols or separators",
		Code:    "VAL002",
	},
	CategoryBoolean: {
		Message: "Invalid yes/no value",
		Action:  "Use 1, true, sí or si for yes and 0, false or no for no",
		Code:    "VAL003",
	},
	CategoryDate: {
		Message: "Invalid date format",
		Action:  "Use YYYY-MM-DD",
		Code:    "VAL004",
	},
	CategoryDateTime: {
		Message: "Invalid date format",
		Action:  "Use YYYY-MM-DD",
		Code:    "VAL004",
	},
}

// errorPatterns maps driver message patterns (case-insensitive) to user messages.
// More specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Review the errors file for duplicate rows",
			Code:    "DB001",
		},
	},
	{
		pattern: "duplicate entry",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Review the errors file for duplicate rows",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your file",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Load the parent records first",
			Code:    "DB003",
		},
	},
	{pattern: "connection refused", msg: msgConnect},
	{pattern: "login failed", msg: msgConnect},
	{pattern: "password authentication failed", msg: msgConnect},
	{pattern: "access denied", msg: msgConnect},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "truncated",
		msg: UserMessage{
			Message: "A value is too long for its column",
			Action:  "Shorten the value or widen the column",
			Code:    "DB008",
		},
	},
	{
		pattern: "too long",
		msg: UserMessage{
			Message: "A value is too long for its column",
			Action:  "Shorten the value or widen the column",
			Code:    "DB008",
		},
	},
	{pattern: "not null", msg: msgNotNull},
	{pattern: "not-null constraint", msg: msgNotNull},
	{pattern: "cannot insert the value null", msg: msgNotNull},
	{pattern: "cannot be null", msg: msgNotNull},
	{
		pattern: "too many concurrent runs",
		msg: UserMessage{
			Message: "System is busy processing other loads",
			Action:  "Please wait a moment and try again",
			Code:    "RUN001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or check the application logs",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Typed errors are checked first, then known driver patterns; if nothing
// matches the ERR000 fallback is returned.
//
// Example:
//
//	err := &SchemaNotFoundError{Object: SchemaTable, Database: "ventas", Table: "x"}
//	msg := MapError(err)
//	// msg.Code == "SCH002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var snf *SchemaNotFoundError
	if errors.As(err, &snf) {
		if snf.Object == SchemaDatabase {
			return msgDatabaseMissing
		}
		return msgTableMissing
	}
	if errors.Is(err, ErrColumnMismatch) {
		return msgColumnMismatch
	}
	if errors.Is(err, ErrConnection) {
		return msgConnect
	}
	var ce *CoercionError
	if errors.As(err, &ce) {
		if ce.Blank {
			return msgBlank
		}
		if msg, ok := coercionMessages[ce.Category]; ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its mapped user message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err into a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
