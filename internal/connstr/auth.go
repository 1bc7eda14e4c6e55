package connstr

import "fmt"

// AuthKind identifies the credential variant carried by a connection.
type AuthKind string

const (
	AuthSharedAccessKey   AuthKind = "shared_access_key"
	AuthSharedAccessToken AuthKind = "shared_access_token"
	AuthSecurityProvider  AuthKind = "security_provider"
)

// AuthMethod is one of SharedAccessKey, SharedAccessToken or ProviderAuth.
// The set is closed: apply is unexported.
type AuthMethod interface {
	Kind() AuthKind
	apply(cs *ConnectionString) error
}

// SharedAccessKey authenticates with a shared access policy and its key.
type SharedAccessKey struct {
	PolicyName string
	Key        string
}

// Kind reports AuthSharedAccessKey.
func (SharedAccessKey) Kind() AuthKind { return AuthSharedAccessKey }

func (m SharedAccessKey) apply(cs *ConnectionString) error {
	cs.keyName = m.PolicyName
	cs.key = m.Key
	cs.signature = ""
	return nil
}

// SharedAccessToken authenticates with a pre-issued shared access signature.
type SharedAccessToken struct {
	PolicyName string
	Token      string
}

// Kind reports AuthSharedAccessToken.
func (SharedAccessToken) Kind() AuthKind { return AuthSharedAccessToken }

func (m SharedAccessToken) apply(cs *ConnectionString) error {
	cs.keyName = m.PolicyName
	cs.key = ""
	cs.signature = m.Token
	return nil
}

// SecurityProvider supplies credentials held outside the descriptor, for
// example in an HSM or a signing service.
type SecurityProvider interface {
	SharedAccessKeyName() string
	// SharedAccessSignature returns a signature valid for hostName.
	SharedAccessSignature(hostName string) (string, error)
}

// ProviderAuth defers credential material to a SecurityProvider. The
// signature is fetched once, when the identity is built.
type ProviderAuth struct {
	Provider SecurityProvider
}

// Kind reports AuthSecurityProvider.
func (ProviderAuth) Kind() AuthKind { return AuthSecurityProvider }

func (m ProviderAuth) apply(cs *ConnectionString) error {
	if m.Provider == nil {
		return fmt.Errorf("%w: security provider is nil", ErrIllegalInput)
	}
	sig, err := m.Provider.SharedAccessSignature(cs.hostName)
	if err != nil {
		return fmt.Errorf("%w: security provider: %w", ErrIllegalInput, err)
	}
	cs.keyName = m.Provider.SharedAccessKeyName()
	cs.key = ""
	cs.signature = sig
	return nil
}
