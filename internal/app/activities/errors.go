package activities

const (
	CodeActivityNotFound = "ACTIVITY_NOT_FOUND"
	CodeAlreadySignedUp  = "ALREADY_SIGNED_UP"
	CodeNotSignedUp      = "NOT_SIGNED_UP"
	CodeActivityFull     = "ACTIVITY_FULL"
	CodeValidation       = "VALIDATION_ERROR"
)

// Error is an application-layer error that can be mapped to an HTTP response.
// Message is caller-facing and is returned verbatim as the response detail.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func errActivityNotFound() *Error {
	return &Error{Status: 404, Code: CodeActivityNotFound, Message: "Activity not found"}
}

func errAlreadySignedUp() *Error {
	return &Error{Status: 400, Code: CodeAlreadySignedUp, Message: "Student is already signed up"}
}

func errNotSignedUp() *Error {
	return &Error{Status: 400, Code: CodeNotSignedUp, Message: "Student is not signed up for this activity"}
}

func errActivityFull() *Error {
	return &Error{Status: 400, Code: CodeActivityFull, Message: "Activity is full"}
}
