package model

import (
	"errors"
	"fmt"
)

// Error kinds shared by every store. Concrete errors wrap one of these so
// callers can match on the kind with errors.Is.
var (
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrNotFound          = errors.New("not found")
	ErrNotOwner          = errors.New("only the seller can modify this listing")
	ErrNameTaken         = errors.New("name is already taken")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrMissingCredential = errors.New("account has no credential set")
	ErrValidationFailed  = errors.New("validation failed")
	ErrSyncInitFailed    = errors.New("synchronization failed to initialize")
)

// Not found errors
var (
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrListingNotFound  = fmt.Errorf("listing %w", ErrNotFound)
	ErrDocumentNotFound = fmt.Errorf("document %w", ErrNotFound)
)
