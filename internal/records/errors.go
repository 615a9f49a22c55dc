package records

import "fmt"

// RemoteError is a failure reported by the store as a whole, as opposed to a
// per-record Result failure.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

func errUnknownTable(table string) error {
	return &RemoteError{Message: fmt.Sprintf("unknown table %q", table)}
}

func duplicateMessage(field string) string {
	return "records: duplicate value for " + field
}

func notFoundMessage(id int64) string {
	return fmt.Sprintf("records: record %d not found", id)
}

const missingIDMessage = "records: missing Id"
