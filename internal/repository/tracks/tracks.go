package tracks

import "errors"

var ErrNotFound = errors.New("track not found")
