package httpapi

import (
	"context"

	"github.com/placesapp/places-api/internal/platform/auth/credential"
)

type verificationKey struct{}

func WithVerification(ctx context.Context, v credential.Verification) context.Context {
	return context.WithValue(ctx, verificationKey{}, v)
}

// VerificationFromContext returns the request's verification outcome. A request that never passed
// through a credential middleware is treated as carrying no credential.
func VerificationFromContext(ctx context.Context) credential.Verification {
	v, ok := ctx.Value(verificationKey{}).(credential.Verification)
	if !ok {
		return credential.Unauthenticated(credential.ReasonMissing)
	}
	return v
}
