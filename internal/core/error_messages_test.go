package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "missing database",
			err:         &SchemaNotFoundError{Object: SchemaDatabase, Database: "ventas"},
			wantCode:    "SCH001",
			wantMessage: "Database not found",
		},
		{
			name:        "missing table through wrapping",
			err:         fmt.Errorf("load: %w", &SchemaNotFoundError{Object: SchemaTable, Database: "ventas", Table: "x"}),
			wantCode:    "SCH002",
			wantMessage: "Table not found in the selected database",
		},
		{
			name:        "column mismatch",
			err:         &ColumnMismatchError{Extra: []string{"extra"}},
			wantCode:    "COL001",
			wantMessage: "File columns do not match the table",
		},
		{
			name:        "blank value",
			err:         &CoercionError{Column: "id", Category: CategoryInteger, Blank: true, Reason: "value is blank"},
			wantCode:    "VAL005",
			wantMessage: "Required field is blank",
		},
		{
			name:        "bad boolean",
			err:         &CoercionError{Column: "ok", Category: CategoryBoolean, Reason: "invalid boolean"},
			wantCode:    "VAL003",
			wantMessage: "Invalid yes/no value",
		},
		{
			name:        "bad datetime uses date code",
			err:         &CoercionError{Column: "at", Category: CategoryDateTime, Reason: "invalid date"},
			wantCode:    "VAL004",
			wantMessage: "Invalid date format",
		},
		{
			name:        "typed connection error",
			err:         &ConnectionError{Driver: "sqlserver", Err: errors.New("i/o timeout")},
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "duplicate key maps correctly",
			err:         &InsertError{Row: 3, Err: errors.New("mssql: Violation of PRIMARY KEY constraint. Cannot insert duplicate key in object 'dbo.T'.")},
			wantCode:    "DB001",
			wantMessage: "A record with this key already exists",
		},
		{
			name:        "mysql duplicate entry",
			err:         errors.New("Error 1062 (23000): Duplicate entry '7' for key 'PRIMARY'"),
			wantCode:    "DB001",
			wantMessage: "A record with this key already exists",
		},
		{
			name:        "sqlite unique constraint",
			err:         errors.New("constraint failed: UNIQUE constraint failed: t.id (2067)"),
			wantCode:    "DB002",
			wantMessage: "This value must be unique but already exists",
		},
		{
			name:        "foreign key maps correctly",
			err:         errors.New("violates foreign key constraint"),
			wantCode:    "DB003",
			wantMessage: "Referenced record does not exist",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "timeout maps correctly",
			err:         errors.New("context deadline exceeded (timeout)"),
			wantCode:    "DB006",
			wantMessage: "Operation timed out",
		},
		{
			name:        "truncation",
			err:         errors.New("mssql: String or binary data would be truncated."),
			wantCode:    "DB008",
			wantMessage: "A value is too long for its column",
		},
		{
			name:        "not null",
			err:         errors.New("Cannot insert the value NULL into column 'name'"),
			wantCode:    "DB009",
			wantMessage: "A column that does not allow NULL received none",
		},
		{
			name:        "postgres not-null",
			err:         errors.New(`ERROR: null value in column "name" of relation "t" violates not-null constraint (SQLSTATE 23502)`),
			wantCode:    "DB009",
			wantMessage: "A column that does not allow NULL received none",
		},
		{
			name:        "mysql not null",
			err:         errors.New("Error 1048 (23000): Column 'name' cannot be null"),
			wantCode:    "DB009",
			wantMessage: "A column that does not allow NULL received none",
		},
		{
			name:        "sqlite not null",
			err:         errors.New("constraint failed: NOT NULL constraint failed: people.name (1299)"),
			wantCode:    "DB009",
			wantMessage: "A column that does not allow NULL received none",
		},
		{
			name:        "nullable in unrelated text",
			err:         errors.New("invalid use of NULLIF on a nullable column"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "limiter saturation",
			err:         ErrTooManyRuns,
			wantCode:    "RUN001",
			wantMessage: "System is busy processing other loads",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DUPLICATE KEY value violates"),
			wantCode:    "DB001",
			wantMessage: "A record with this key already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := &SchemaNotFoundError{Object: SchemaDatabase, Database: "nope"}
	result := FormatUserError(err)

	expected := "Database not found (Code: SCH001). Check the database name and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  errors.New("duplicate key"),
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := &ColumnMismatchError{Missing: []string{"id"}}
		userErr := NewUserError(techErr)

		if userErr.Error() != "File columns do not match the table" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrColumnMismatch) {
			t.Error("Unwrap() should expose the original error")
		}
	})
}
