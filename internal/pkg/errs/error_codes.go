/*
Package errs provides custom error types and application-level error code constants.

These error codes identify request, stream chat and system failures both inside the
server and in the JSON envelopes and real-time error events sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request or message rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Stream and Chat Errors
const (
	// ErrInvalidStreamID indicates that the stream identifier is missing or not numeric where required.
	ErrInvalidStreamID = 2101

	// ErrMessageEmpty indicates that a chat message was blank after trimming.
	ErrMessageEmpty = 2201

	// ErrMessageTooLong indicates that a chat message exceeded the maximum length.
	ErrMessageTooLong = 2202

	// ErrMessageDeleteForbidden indicates the caller is neither the sender nor the stream owner,
	// or the message does not exist.
	ErrMessageDeleteForbidden = 2203

	// ErrUnknownEvent indicates a real-time event name the server does not handle.
	ErrUnknownEvent = 2301
)

// 3xxx: Identity and Security Errors
const (
	// ErrUnauthorized indicates a missing or invalid identity token.
	ErrUnauthorized = 3001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrHistoryUnavailable indicates that the recent-history cache could not be read.
	ErrHistoryUnavailable = 5001
)
