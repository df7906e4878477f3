package core

import (
	"errors"
)

var (
	ErrEventSystemDown = errors.New("event system not initialized")
)
