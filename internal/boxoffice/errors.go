package boxoffice

import "errors"

// ErrForbidden is returned when a caller operates on a ticket owned
// by someone else. Handlers should translate this into an HTTP 403
// response.
var ErrForbidden = errors.New("forbidden")

// ErrNoSeat is returned when a return names a seat index the ticket
// does not hold.
var ErrNoSeat = errors.New("no such seat on ticket")
