package compiler

import "errors"

// ErrNoExecutableMethod means findExecutableMethod's precedence found no
// candidate method in the class, per spec §7/SPEC_FULL.md §9.
var ErrNoExecutableMethod = errors.New("no executable method found")
