package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: User & Auth module errors
// 12000-12999: Task catalog module errors
// 13000-13999: Submission & Sandbox module errors
// 14000-14999: Achievement module errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	Forbidden           ErrorCode = 10005
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	DatabaseError       ErrorCode = 10100
	RecordNotFound      ErrorCode = 10101
	RecordAlreadyExists ErrorCode = 10102
	TransactionFailed   ErrorCode = 10103

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	RequiredFieldEmpty ErrorCode = 10302

	// ========== User & Auth Module Errors (11000-11999) ==========

	// Authentication (11000-11099)
	InvalidCredentials    ErrorCode = 11000
	UserNotFound          ErrorCode = 11001
	TokenExpired          ErrorCode = 11002
	TokenInvalid          ErrorCode = 11003
	TokenGenerationFailed ErrorCode = 11004
	LoginTooFrequently    ErrorCode = 11005

	// Registration (11100-11199)
	LoginAlreadyExists ErrorCode = 11100
	EmailAlreadyExists ErrorCode = 11101
	InvalidLogin       ErrorCode = 11102
	InvalidEmail       ErrorCode = 11103
	PasswordTooWeak    ErrorCode = 11104

	// User operations (11200-11299)
	InsufficientScore ErrorCode = 11200

	// ========== Task Catalog Module Errors (12000-12999) ==========

	// Task basic (12000-12099)
	TaskNotFound          ErrorCode = 12000
	MissionInvalid        ErrorCode = 12001
	ExpectedResultMissing ErrorCode = 12002

	// Clues (12100-12199)
	ClueNotFound         ErrorCode = 12100
	ClueAlreadyPurchased ErrorCode = 12101

	// ========== Submission & Sandbox Module Errors (13000-13999) ==========

	// Submission (13000-13099)
	SubmissionFailed ErrorCode = 13000

	// Sandbox (13100-13199)
	QueryRejected        ErrorCode = 13100
	QueryExecutionFailed ErrorCode = 13101
	QueryTimeout         ErrorCode = 13102

	// ========== Achievement Module Errors (14000-14999) ==========

	AchievementNotFound ErrorCode = 14000
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized access",
	Forbidden:           "Access forbidden",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Database
	DatabaseError:       "Database operation failed",
	RecordNotFound:      "Record not found in database",
	RecordAlreadyExists: "Record already exists",
	TransactionFailed:   "Database transaction failed",

	// Cache
	CacheError: "Cache operation failed",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	RequiredFieldEmpty: "Required field is empty",

	// User - Authentication
	InvalidCredentials:    "Invalid login or password",
	UserNotFound:          "User not found",
	TokenExpired:          "Token has expired",
	TokenInvalid:          "Invalid token",
	TokenGenerationFailed: "Failed to generate token",
	LoginTooFrequently:    "Too many login attempts, please wait",

	// User - Registration
	LoginAlreadyExists: "Login already exists",
	EmailAlreadyExists: "Email already exists",
	InvalidLogin:       "Invalid login format",
	InvalidEmail:       "Invalid email format",
	PasswordTooWeak:    "Password is too weak",

	// User - Operations
	InsufficientScore: "Insufficient score",

	// Task
	TaskNotFound:          "Task not found",
	MissionInvalid:        "Mission is not configured",
	ExpectedResultMissing: "Task has no expected result configured",

	// Clues
	ClueNotFound:         "Clue not found",
	ClueAlreadyPurchased: "Clue already purchased",

	// Submission
	SubmissionFailed: "Failed to process submission",

	// Sandbox
	QueryRejected:        "Forbidden operation in SQL query",
	QueryExecutionFailed: "Query execution failed",
	QueryTimeout:         "Query execution time exceeded",

	// Achievement
	AchievementNotFound: "Achievement not found",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == TooManyRequests, c == LoginTooFrequently:
		return 429
	case c == NotFound, c == UserNotFound, c == TaskNotFound, c == ClueNotFound, c == AchievementNotFound:
		return 404
	case c >= 11000 && c < 11100: // Authentication errors
		return 401
	case c == Unauthorized:
		return 401
	case c == Forbidden:
		return 403
	case c == Timeout, c == QueryTimeout:
		return 408
	case c == ServiceUnavailable:
		return 503
	case c == QueryRejected, c == ExpectedResultMissing:
		return 422
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == QueryExecutionFailed, c == InsufficientScore, c == ClueAlreadyPurchased:
		return 400
	default:
		return 500
	}
}
