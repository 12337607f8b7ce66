package errors

import "fmt"

// ErrNotFound is returned by stores when a record does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation is returned when a single record fails validation
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrStructural aborts a whole import or export run: missing CSV columns,
// missing data.json, unreadable archive.
type ErrStructural struct {
	Message string
	Err     error
}

func (e *ErrStructural) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ErrStructural) Unwrap() error {
	return e.Err
}
