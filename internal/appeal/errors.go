package appeal

import "fmt"

// Error codes reported to the operation surface. Only the record feed is
// considered possibly transient; everything else needs a changed request.
const (
	CodeUnparseableQuery   = "unparseable_query"
	CodeNotFound           = "not_found"
	CodeMissingCoordinates = "missing_coordinates"
	CodeNoActiveProperty   = "no_active_property"
	CodeInvalidComparable  = "invalid_comparable"
	CodeSequencing         = "sequencing_violation"
	CodeSourceUnavailable  = "source_unavailable"
	CodeValidation         = "validation"
	CodeInternal           = "internal"
)

type Error struct {
	Code      string
	Message   string
	Transient bool
	Status    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func statusForCode(code string) int {
	switch code {
	case CodeUnparseableQuery, CodeInvalidComparable, CodeValidation:
		return 400
	case CodeNotFound:
		return 404
	case CodeNoActiveProperty, CodeMissingCoordinates, CodeSequencing:
		return 409
	case CodeSourceUnavailable:
		return 502
	default:
		return 500
	}
}

func newError(code, format string, args ...any) *Error {
	return &Error{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Transient: code == CodeSourceUnavailable,
		Status:    statusForCode(code),
	}
}
