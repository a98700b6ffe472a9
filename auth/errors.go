package auth

import "errors"

// ErrKeyNotFound is returned by key providers when no signing key
// matches the requested key ID after a refresh.
var ErrKeyNotFound = errors.New("auth: signing key not found")
