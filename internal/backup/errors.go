package backup

import "errors"

var (
	// ErrParse is returned when the backup text is not valid JSON.
	ErrParse = errors.New("backup: invalid JSON")
	// ErrFormat is returned when the JSON carries no recognizable collection.
	ErrFormat = errors.New("backup: unrecognized format")
)
