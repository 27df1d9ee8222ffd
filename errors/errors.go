package errors

import "fmt"

// Client input errors. Their text is returned verbatim to HTTP callers.
var (
	ErrAuthorAndContentRequired = fmt.Errorf("Author and content are required")
	ErrContentTooLong           = fmt.Errorf("Content must be 50 characters or less")
)

var (
	ErrStorageUnavailable   = fmt.Errorf("storage unavailable")
	ErrUnknownStorageDriver = fmt.Errorf("unknown storage driver")
	ErrSchemaVersion        = fmt.Errorf("unsupported schema version")
	ErrPostNotFound         = fmt.Errorf("post not found")
)
