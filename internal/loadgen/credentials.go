package loadgen

// CredentialProvider supplies the bearer token attached to endpoints that
// require auth. It is injected at pool construction rather than hardcoded,
// so callers can plug in static tokens, env lookups, or refreshing sources.
type CredentialProvider interface {
	Token() (string, error)
}

// StaticToken is a CredentialProvider over a fixed token.
type StaticToken string

func (t StaticToken) Token() (string, error) {
	return string(t), nil
}

// Anonymous provides no credentials; auth-requiring endpoints are sent
// without an Authorization header.
type Anonymous struct{}

func (Anonymous) Token() (string, error) {
	return "", nil
}
