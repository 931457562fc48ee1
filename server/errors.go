package server

import "errors"

var (
	errMethodNotAllowed = errors.New("method not allowed")
	errUnknownSession   = errors.New("unknown session id")
	errMalformedAction  = errors.New("malformed action message")
)
