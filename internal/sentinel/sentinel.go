package sentinel

import "errors"

// ErrNotFound is returned (optionally wrapped) by stores so services can
// translate it into a domain error without knowing which driver produced it.
var ErrNotFound = errors.New("resource not found")
