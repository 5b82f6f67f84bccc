// Package identity verifies bearer tokens issued by the identity provider and
// exposes the authenticated user through the request context.
//
// Tokens are HS256 JWTs signed with a shared secret. The "sub" claim is the
// user id; "email" is optional.
//
//	v, err := identity.NewVerifier(cfg)
//	if err != nil {
//		return err
//	}
//	r.With(identity.Middleware(v)).Get("/subscription", h)
//
// Handlers read the caller with identity.UserID(r.Context()).
package identity
