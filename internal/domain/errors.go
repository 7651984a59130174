package domain

import "errors"

var (
	ErrEmptyInput         = errors.New("no tokens or text to parse")
	ErrLayoutNotDetected  = errors.New("table layout not detected")
	ErrMalformedNumber    = errors.New("malformed number")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUnsupportedFormat  = errors.New("unsupported document format")
	ErrNoExtractor        = errors.New("no extraction strategy produced tokens or text")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrUnsupportedExport  = errors.New("unsupported export format")
	ErrPersistenceOffline = errors.New("result persistence is not configured")
)
