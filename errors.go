package lifecycle

import "errors"

// ErrNilEntity is returned when a write is attempted without an entity.
var ErrNilEntity = errors.New("entity is required")

// ErrMissingDispatcher is returned by stores constructed without one.
var ErrMissingDispatcher = errors.New("dispatcher is required")
