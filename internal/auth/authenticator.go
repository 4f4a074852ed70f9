package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

const DefaultCookieName = "AuthCookie"

// CookieJar is the read side of a request's cookies. *http.Request
// satisfies it.
type CookieJar interface {
	Cookie(name string) (*http.Cookie, error)
}

type OutcomeKind int

const (
	NoCredential OutcomeKind = iota
	Authenticated
	Rejected
)

func (k OutcomeKind) String() string {
	switch k {
	case NoCredential:
		return "no_credential"
	case Authenticated:
		return "authenticated"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Outcome is the result of reading the session cookie of one request. Err
// holds the decode failure of a Rejected outcome for logging only.
type Outcome struct {
	Kind      OutcomeKind
	principal Principal
	Err       error
}

// Principal returns nil unless the outcome is Authenticated.
func (o Outcome) Principal() *Principal {
	if o.Kind != Authenticated {
		return nil
	}
	p := o.principal.clone()
	return &p
}

type AuthenticatorConfig struct {
	CookieName   string
	SecureCookie bool
}

type Authenticator struct {
	validator *CredentialValidator
	cookie    string
	secure    bool
}

func NewAuthenticator(validator *CredentialValidator, cfg AuthenticatorConfig) (*Authenticator, error) {
	if validator == nil {
		return nil, fmt.Errorf("credential validator is required")
	}
	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	return &Authenticator{validator: validator, cookie: name, secure: cfg.SecureCookie}, nil
}

func (a *Authenticator) CookieName() string {
	return a.cookie
}

func (a *Authenticator) Authenticate(jar CookieJar) Outcome {
	c, err := jar.Cookie(a.cookie)
	if err != nil || c.Value == "" {
		return Outcome{Kind: NoCredential}
	}
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return Outcome{Kind: Rejected, Err: fmt.Errorf("%w: %v", ErrMalformedCookie, err)}
	}
	p, err := DecodeSession(raw)
	if err != nil {
		return Outcome{Kind: Rejected, Err: err}
	}
	return Outcome{Kind: Authenticated, principal: p}
}

// Login validates the credentials and mints the session cookie value for
// the resulting principal.
func (a *Authenticator) Login(ctx context.Context, username, password string) (Principal, string, error) {
	p, err := a.validator.Validate(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return Principal{}, "", ErrInvalidCredentials
		}
		return Principal{}, "", err
	}
	value, err := EncodeSession(p)
	if err != nil {
		return Principal{}, "", fmt.Errorf("encode session: %w", err)
	}
	return p, value, nil
}

// SessionCookie wraps an encoded session value for the wire. The value is
// percent-encoded because the cookie grammar does not allow ';'.
func (a *Authenticator) SessionCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     a.cookie,
		Value:    url.QueryEscape(value),
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
	}
}

// Logout returns the cookie that clears the session, or nil when the
// request carried none.
func (a *Authenticator) Logout(jar CookieJar) *http.Cookie {
	if _, err := jar.Cookie(a.cookie); err != nil {
		return nil
	}
	return &http.Cookie{
		Name:     a.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
	}
}
