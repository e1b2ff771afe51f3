package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges:
//
//	10000-10999  system & common
//	12000-12999  problem / submission
//	13000-13299  judge execution and job queue
const (
	// ========== System & Common Errors (10000-10999) ==========

	Success ErrorCode = 10000

	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	ServiceUnavailable  ErrorCode = 10004
	Timeout             ErrorCode = 10005

	// Database related (10100-10199)
	DatabaseError     ErrorCode = 10100
	RecordNotFound    ErrorCode = 10101
	TransactionFailed ErrorCode = 10102

	// Cache related (10200-10299)
	CacheError ErrorCode = 10200

	// Validation related (10300-10399)
	ValidationFailed   ErrorCode = 10300
	RequiredFieldEmpty ErrorCode = 10301

	// ========== Problem & Submission Errors (12000-12999) ==========

	ProblemNotFound  ErrorCode = 12000
	TestCasesMissing ErrorCode = 12100

	SubmissionNotFound ErrorCode = 12500
	UserNotFound       ErrorCode = 12501

	// ========== Judge Errors (13000-13299) ==========

	// Judge execution (13000-13199)
	LanguageNotSupported ErrorCode = 13000
	JudgeSystemError     ErrorCode = 13001
	SpawnFailed          ErrorCode = 13002

	// Job queue (13200-13299)
	QueueError      ErrorCode = 13200
	JobNotFound     ErrorCode = 13201
	JobNotClaimable ErrorCode = 13202
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Database
	DatabaseError:     "Database operation failed",
	RecordNotFound:    "Record not found",
	TransactionFailed: "Transaction failed",

	// Cache
	CacheError: "Cache operation failed",

	// Validation
	ValidationFailed:   "Validation failed",
	RequiredFieldEmpty: "Required field is empty",

	// Problem & Submission
	ProblemNotFound:    "Problem not found",
	TestCasesMissing:   "Problem has no test cases",
	SubmissionNotFound: "Submission not found",
	UserNotFound:       "User not found",

	// Judge
	LanguageNotSupported: "Language not supported",
	JudgeSystemError:     "Judge system error",
	SpawnFailed:          "Failed to spawn process",

	// Queue
	QueueError:      "Job queue operation failed",
	JobNotFound:     "Job not found",
	JobNotClaimable: "Job is not claimable",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus maps an error code to an HTTP status code
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case Success:
		return 200
	case InvalidParams, ValidationFailed, RequiredFieldEmpty, LanguageNotSupported:
		return 400
	case NotFound, RecordNotFound, ProblemNotFound, SubmissionNotFound, JobNotFound, UserNotFound:
		return 404
	case Timeout:
		return 504
	case ServiceUnavailable:
		return 503
	default:
		return 500
	}
}
