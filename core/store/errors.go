package store

import "errors"

var errUnknownUser = errors.New("unknown user")
