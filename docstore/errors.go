package docstore

import (
	"errors"
	"fmt"
)

// ErrStorage matches every *StorageError via errors.Is.
var ErrStorage = errors.New("docstore: storage failure")

// StorageError reports a durable write (or directory setup) that did not
// happen. The collection's previous document is left untouched.
type StorageError struct {
	Collection string
	Op         string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("docstore: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
