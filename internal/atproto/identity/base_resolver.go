package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	indigoIdentity "github.com/bluesky-social/indigo/atproto/identity"
	"github.com/bluesky-social/indigo/atproto/syntax"
)

// baseResolver implements Resolver using Indigo's identity resolution
// (DNS TXT and HTTPS well-known for handles, PLC directory for DIDs).
type baseResolver struct {
	directory indigoIdentity.Directory
}

func newBaseResolver(plcURL string) Resolver {
	dir := &indigoIdentity.BaseDirectory{
		PLCURL:     plcURL,
		HTTPClient: http.Client{Timeout: 10 * time.Second},
	}
	return &baseResolver{directory: dir}
}

// Resolve resolves a handle or DID to complete identity information
func (r *baseResolver) Resolve(ctx context.Context, identifier string) (*Identity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, &ErrInvalidIdentifier{
			Identifier: identifier,
			Reason:     "identifier cannot be empty",
		}
	}

	atID, err := syntax.ParseAtIdentifier(identifier)
	if err != nil {
		return nil, &ErrInvalidIdentifier{
			Identifier: identifier,
			Reason:     fmt.Sprintf("invalid identifier format: %v", err),
		}
	}

	ident, err := r.directory.Lookup(ctx, *atID)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "not found") ||
			strings.Contains(errStr, "NoRecordsFound") ||
			strings.Contains(errStr, "404") {
			return nil, &ErrNotFound{Identifier: identifier, Reason: errStr}
		}
		return nil, &ErrResolutionFailed{Identifier: identifier, Reason: errStr}
	}

	return &Identity{
		DID:        ident.DID.String(),
		Handle:     ident.Handle.String(),
		ResolvedAt: time.Now().UTC(),
		Method:     MethodNetwork,
	}, nil
}

// ResolveHandle specifically resolves a handle to its stable DID
func (r *baseResolver) ResolveHandle(ctx context.Context, handle string) (string, error) {
	ident, err := r.Resolve(ctx, handle)
	if err != nil {
		return "", err
	}
	return ident.DID, nil
}

// Purge is a no-op for base resolver (no caching)
func (r *baseResolver) Purge(ctx context.Context, identifier string) error {
	return nil
}
