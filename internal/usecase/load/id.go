package load

import "github.com/google/uuid"

func newLoadID() string { return uuid.NewString() }
