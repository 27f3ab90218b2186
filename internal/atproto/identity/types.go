package identity

import "time"

// ResolutionMethod indicates how an identity was resolved
type ResolutionMethod string

const (
	MethodCache   ResolutionMethod = "cache"
	MethodNetwork ResolutionMethod = "network"
)

// Identity represents a resolved atProto identity. This viewer only needs
// the handle/DID pair; PDS endpoints are irrelevant because all reads go
// through the public AppView.
type Identity struct {
	DID        string           `json:"did"`
	Handle     string           `json:"handle"`
	ResolvedAt time.Time        `json:"resolvedAt"`
	Method     ResolutionMethod `json:"-"`
}
