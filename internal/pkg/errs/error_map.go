/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and real-time error events.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Stream and Chat Errors
	ErrInvalidStreamID:        {Code: ErrInvalidStreamID, Message: "Invalid stream.", Status: http.StatusBadRequest},
	ErrMessageEmpty:           {Code: ErrMessageEmpty, Message: "Message cannot be empty.", Status: http.StatusBadRequest},
	ErrMessageTooLong:         {Code: ErrMessageTooLong, Message: "Message too long (max %d characters).", Status: http.StatusBadRequest},
	ErrMessageDeleteForbidden: {Code: ErrMessageDeleteForbidden, Message: "Cannot delete this message.", Status: http.StatusForbidden},
	ErrUnknownEvent:           {Code: ErrUnknownEvent, Message: "Unsupported event."},

	// 3xxx: Identity and Security Errors
	ErrUnauthorized: {Code: ErrUnauthorized, Message: "Authentication required.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown:            {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrHistoryUnavailable: {Code: ErrHistoryUnavailable, Message: "Chat history is temporarily unavailable.", Status: http.StatusServiceUnavailable},
}
