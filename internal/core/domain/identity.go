package domain

// CallerIdentity is the authenticated principal behind a request.
type CallerIdentity struct {
	Login string
	Role  string
}
