package history

import "errors"

var ErrNotFound = errors.New("cache record not found")
