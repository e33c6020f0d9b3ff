package service

import (
	"errors"
)

var (
	// ErrValidation wraps every rejected input; the message after the
	// prefix is safe to show to the client.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateOwnership rejects promoting an asset that another
	// record already owns. Transfers go through an explicit release first.
	ErrDuplicateOwnership = errors.New("asset is owned by another record")

	// ErrSourceMissing means the registry points at a file that is gone
	// and no concurrent promotion accounts for it.
	ErrSourceMissing = errors.New("asset file is missing")
)
