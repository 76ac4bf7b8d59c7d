package memory

import "context"

// StaticIdentity is an identity store with a fixed name. An empty name means no identity.
type StaticIdentity struct {
	Name string
}

func (s StaticIdentity) Identity(_ context.Context) (string, bool, error) {
	return s.Name, s.Name != "", nil
}
