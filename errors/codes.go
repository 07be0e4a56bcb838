package errors

// ErrorCode identifies an application error family for clients and logs.
type ErrorCode int32

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS   ErrorCode = 1003
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1004

	// Session
	ErrorCode_SESSION_ALREADY_ACTIVE ErrorCode = 2000
	ErrorCode_SESSION_NOT_FOUND      ErrorCode = 2001
	ErrorCode_SESSION_INVALID_STATE  ErrorCode = 2002

	// Speech recognition
	ErrorCode_RECOGNITION_CONNECT_FAILED ErrorCode = 3000
	ErrorCode_RECOGNITION_STREAM_FAILED  ErrorCode = 3001

	// Translation / summarization
	ErrorCode_TRANSLATION_FAILED ErrorCode = 4000
	ErrorCode_SUMMARY_FAILED     ErrorCode = 4001

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 5000
	ErrorCode_INTEGRATION_CACHE_FAILED   ErrorCode = 5001

	// Database
	ErrorCode_DB_CONNECTION_FAILED ErrorCode = 6000
	ErrorCode_DB_QUERY_FAILED      ErrorCode = 6001
)

var codeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                    "OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:             "ALREADY_EXISTS",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_SESSION_ALREADY_ACTIVE:     "SESSION_ALREADY_ACTIVE",
	ErrorCode_SESSION_NOT_FOUND:          "SESSION_NOT_FOUND",
	ErrorCode_SESSION_INVALID_STATE:      "SESSION_INVALID_STATE",
	ErrorCode_RECOGNITION_CONNECT_FAILED: "RECOGNITION_CONNECT_FAILED",
	ErrorCode_RECOGNITION_STREAM_FAILED:  "RECOGNITION_STREAM_FAILED",
	ErrorCode_TRANSLATION_FAILED:         "TRANSLATION_FAILED",
	ErrorCode_SUMMARY_FAILED:             "SUMMARY_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:   "INTEGRATION_CACHE_FAILED",
	ErrorCode_DB_CONNECTION_FAILED:       "DB_CONNECTION_FAILED",
	ErrorCode_DB_QUERY_FAILED:            "DB_QUERY_FAILED",
}

// String returns the symbolic name of the error code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
