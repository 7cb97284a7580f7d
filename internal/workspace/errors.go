package workspace

import "errors"

var ErrLayoutConflict = errors.New("workspace layout conflict")
