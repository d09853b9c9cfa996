package remote

// Authenticator provides credentials for registry downloads.
type Authenticator interface {
	// Authenticate returns credentials for the given registry.
	Authenticate(registry string) (username, password string, err error)
}

// BasicAuthenticator hands the same credentials to every registry.
type BasicAuthenticator struct {
	Username string
	Password string
}

// NewBasicAuthenticator returns nil when username is empty, so callers
// fall back to the docker keychain.
func NewBasicAuthenticator(username, password string) Authenticator {
	if username == "" {
		return nil
	}
	return &BasicAuthenticator{Username: username, Password: password}
}

func (a *BasicAuthenticator) Authenticate(string) (string, string, error) {
	return a.Username, a.Password, nil
}
