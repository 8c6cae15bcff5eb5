package checkout

import "net/http"

// Machine-readable error codes returned to the client.
const (
	CodeInvalidPayload  = "invalid_payload"
	CodeItemUnavailable = "item_unavailable"
	CodeCartEmpty       = "cart_empty"
	CodeCheckoutFailed  = "checkout_failed"
)

// Error is a checkout rejection with a stable code, a message suitable for
// direct display, and the HTTP status it maps to. Validation failures carry
// the full issue list so the UI can show all of them at once.
type Error struct {
	Code    string
	Message string
	Status  int
	Issues  []string
}

func (e *Error) Error() string {
	return e.Message
}

func errInvalidPayload(issues []string) *Error {
	return &Error{
		Code:    CodeInvalidPayload,
		Message: "invalid checkout payload",
		Status:  http.StatusBadRequest,
		Issues:  issues,
	}
}

func errItemUnavailable() *Error {
	return &Error{
		Code:    CodeItemUnavailable,
		Message: "one or more items are no longer available",
		Status:  http.StatusBadRequest,
	}
}

func errCartEmpty() *Error {
	return &Error{
		Code:    CodeCartEmpty,
		Message: "cart is empty, nothing to checkout",
		Status:  http.StatusBadRequest,
	}
}

func errCheckoutFailed() *Error {
	return &Error{
		Code:    CodeCheckoutFailed,
		Message: "failed to create checkout session",
		Status:  http.StatusInternalServerError,
	}
}
