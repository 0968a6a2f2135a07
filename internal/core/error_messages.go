package core

// error_messages.go maps technical errors to coded messages for the API and
// the failure log. Codes are stable; support staff quote them.
//
// # Extraction (EXT001-EXT099)
//
//	EXT001 - No recognizable NAV layout in a sheet      "unrecognized layout"
//	EXT002 - A record lacks code, date or unit value    "missing required fields"
//	EXT003 - Unit value is not a number                 "invalid number"
//	EXT004 - Valuation date could not be read           "invalid date"
//
// # Files (FILE001-FILE099)
//
//	FILE001 - File exceeds the size limit               "file too large"
//	FILE002 - Not an xlsx, xls or csv file              "unsupported spreadsheet format"
//	FILE003 - Workbook has no sheets                    "workbook has no sheets"
//	FILE004 - Request carried no file                   "no file provided"
//	FILE005 - File is empty                             "empty file"
//	FILE006 - File could not be decoded                 "decode "
//
// # Mail (MAIL001-MAIL099)
//
//	MAIL001 - Mail drop directory unreadable            "read mail dir"
//	MAIL002 - Message could not be parsed               "parse message"
//	MAIL003 - No mail source configured                 "mail source not configured"
//
// # Ingest (ING001-ING099)
//
//	ING001 - All ingest slots busy                      "too many concurrent ingests"
//	ING002 - A mailbox sync is already running          "sync already running"
//	ING003 - Request cancelled                          "context canceled"
//	ING004 - Request timed out                          "context deadline exceeded"
//
// # Database (DB001-DB099)
//
//	DB001 - Connection refused                          "connection refused"
//	DB002 - Connection reset                            "connection reset"
//	DB003 - Operation timed out                         "timeout"
//	DB004 - Deadlock                                    "deadlock"
//	DB005 - Schema could not be applied                 "apply schema"
//
// Anything else maps to ERR000.

import (
	"fmt"
	"strings"
)

// UserMessage is a user-facing explanation of an error.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is checked in order; the first substring match wins.
var errorPatterns = []errorPattern{
	// Extraction
	{"unrecognized layout", UserMessage{
		Message: "No NAV table or labelled values were found",
		Action:  "Check that the sheet contains a product code and unit NAV",
		Code:    "EXT001",
	}},
	{"missing required fields", UserMessage{
		Message: "A NAV record is missing its code, date or unit value",
		Action:  "Check the sheet for blank code, date or NAV cells",
		Code:    "EXT002",
	}},
	{"invalid number", UserMessage{
		Message: "The unit NAV is not a number",
		Action:  "Check the NAV column for text or placeholders",
		Code:    "EXT003",
	}},
	{"invalid date", UserMessage{
		Message: "The valuation date could not be read",
		Action:  "Use YYYYMMDD, YYYY-MM-DD or YYYY/MM/DD",
		Code:    "EXT004",
	}},

	// Files
	{"file too large", UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the workbook or raise the upload limit",
		Code:    "FILE001",
	}},
	{"unsupported spreadsheet format", UserMessage{
		Message: "File is not a spreadsheet",
		Action:  "Upload an xlsx, xls or csv file",
		Code:    "FILE002",
	}},
	{"workbook has no sheets", UserMessage{
		Message: "The workbook contains no sheets",
		Action:  "Check that the file was exported completely",
		Code:    "FILE003",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Please select a spreadsheet to upload",
		Code:    "FILE004",
	}},
	{"empty file", UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a spreadsheet with data",
		Code:    "FILE005",
	}},
	{"decode ", UserMessage{
		Message: "The file could not be read",
		Action:  "Open and re-save the file in a spreadsheet program",
		Code:    "FILE006",
	}},

	// Mail
	{"read mail dir", UserMessage{
		Message: "The mail drop directory could not be read",
		Action:  "Check MAIL_DIR and its permissions",
		Code:    "MAIL001",
	}},
	{"parse message", UserMessage{
		Message: "A mail message could not be parsed",
		Action:  "Re-export the message from the mail client",
		Code:    "MAIL002",
	}},
	{"mail source not configured", UserMessage{
		Message: "No mail source is configured",
		Action:  "Set MAIL_DIR to enable mailbox sync",
		Code:    "MAIL003",
	}},

	// Ingest
	{"too many concurrent ingests", UserMessage{
		Message: "System busy: too many ingests in progress",
		Action:  "Please wait a moment and try again",
		Code:    "ING001",
	}},
	{"sync already running", UserMessage{
		Message: "A mailbox sync is already running",
		Action:  "Wait for the current sync to finish",
		Code:    "ING002",
	}},
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "ING003",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "ING004",
	}},

	// Database
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB001",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB002",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Please try again later",
		Code:    "DB003",
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB004",
	}},
	{"apply schema", UserMessage{
		Message: "The database schema could not be applied",
		Action:  "Check database permissions and logs",
		Code:    "DB005",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError returns the user message for err. A nil error maps to the zero
// UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	text := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(text, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// ErrorCode is MapError(err).Code.
func ErrorCode(err error) string {
	return MapError(err).Code
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
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

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
