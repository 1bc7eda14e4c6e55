package connstr

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTokenTTL is the lifetime of service tokens signed without an
// explicit TTL.
const DefaultTokenTTL = 365 * 24 * time.Hour

const sasTokenFormat = "SharedAccessSignature sr=%s&sig=%s&se=%s&skn=%s"

// ServiceToken signs a shared access signature for hostName with the
// base64-encoded policy key. The token expires at expiresAt, truncated to the
// second. The resource is the lowercased host name, as the hub lowercases it
// before checking the signature.
func ServiceToken(hostName, keyName, key string, expiresAt time.Time) (string, error) {
	if hostName == "" || keyName == "" || key == "" {
		return "", fmt.Errorf("%w: host name, key name and key are required to sign a token", ErrIllegalInput)
	}
	keyBytes, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not valid base64", ErrFormat, SharedAccessKeyKey)
	}

	resource := url.QueryEscape(strings.ToLower(hostName))
	expiry := strconv.FormatInt(expiresAt.Unix(), 10)

	mac := hmac.New(sha256.New, keyBytes)
	mac.Write([]byte(resource + "\n" + expiry))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf(sasTokenFormat, resource, url.QueryEscape(sig), expiry, keyName), nil
}

// Token returns a credential for the hub. Token-based and provider-based
// connections return their stored signature; key-based connections sign a
// new token valid for ttl from now (DefaultTokenTTL when ttl <= 0).
func (cs *ConnectionString) Token(now time.Time, ttl time.Duration) (string, error) {
	if cs.signature != "" {
		return cs.signature, nil
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return ServiceToken(cs.hostName, cs.keyName, cs.key, now.Add(ttl))
}

// SigningProvider is a SecurityProvider that signs a fresh token from a
// policy key whenever a connection is built, so the key itself is never
// stored on the ConnectionString.
type SigningProvider struct {
	keyName string
	key     string
	ttl     time.Duration
	now     func() time.Time
}

// SigningOption configures a SigningProvider.
type SigningOption func(*SigningProvider)

// WithSigningClock overrides time.Now as the base of token expiry.
func WithSigningClock(now func() time.Time) SigningOption {
	return func(p *SigningProvider) { p.now = now }
}

// NewSigningProvider returns a provider signing tokens valid for ttl.
func NewSigningProvider(keyName, key string, ttl time.Duration, opts ...SigningOption) (*SigningProvider, error) {
	if keyName == "" || key == "" {
		return nil, fmt.Errorf("%w: key name and key are required", ErrIllegalInput)
	}
	if _, err := base64.StdEncoding.DecodeString(key); err != nil {
		return nil, fmt.Errorf("%w: %s is not valid base64", ErrFormat, SharedAccessKeyKey)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	p := &SigningProvider{keyName: keyName, key: key, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// SharedAccessKeyName is the policy the provider signs for.
func (p *SigningProvider) SharedAccessKeyName() string { return p.keyName }

// SharedAccessSignature signs a token for hostName expiring ttl from now.
func (p *SigningProvider) SharedAccessSignature(hostName string) (string, error) {
	return ServiceToken(hostName, p.keyName, p.key, p.now().Add(p.ttl))
}
