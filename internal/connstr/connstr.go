package connstr

import (
	"fmt"
	"strings"
)

// Descriptor keys understood by Parse. Other keys are ignored.
const (
	HostNameKey              = "HostName"
	SharedAccessKeyNameKey   = "SharedAccessKeyName"
	SharedAccessKeyKey       = "SharedAccessKey"
	SharedAccessSignatureKey = "SharedAccessSignature"
)

const (
	// unsetValue is written for empty fields by String. Existing consumers
	// read the literal text, so it stays.
	unsetValue   = "null"
	redacted     = "***"
	userSASScope = "@SAS.root."
)

// ConnectionString is a validated hub endpoint and its authentication
// material. Values are built by Parse or New and never mutated afterwards.
type ConnectionString struct {
	hostName  string
	hubName   string
	keyName   string
	key       string
	signature string
	method    AuthMethod
}

// Parse builds a ConnectionString from a descriptor such as
// "HostName=hub.example.net;SharedAccessKeyName=owner;SharedAccessKey=...".
// A descriptor carrying SharedAccessSignature authenticates with that token,
// otherwise with the shared access key.
func Parse(descriptor string) (*ConnectionString, error) {
	pairs, err := Tokenize(descriptor)
	if err != nil {
		return nil, err
	}

	hostName, _ := pairs.Get(HostNameKey)
	if strings.TrimSpace(hostName) == "" {
		return nil, fmt.Errorf("%w: %s is missing", ErrFormat, HostNameKey)
	}
	if err := ValidateRequired(HostNameKey, hostName, hostNamePattern); err != nil {
		return nil, err
	}

	keyName, _ := pairs.Get(SharedAccessKeyNameKey)
	key, _ := pairs.Get(SharedAccessKeyKey)
	signature, _ := pairs.Get(SharedAccessSignatureKey)

	var method AuthMethod
	if signature == "" {
		method = SharedAccessKey{PolicyName: keyName, Key: key}
	} else {
		method = SharedAccessToken{PolicyName: keyName, Token: signature}
	}
	return build(hostName, method)
}

// New builds a ConnectionString from a host name and an authentication
// method. Which credential field is populated is decided by the method.
func New(hostName string, method AuthMethod) (*ConnectionString, error) {
	if hostName == "" {
		return nil, fmt.Errorf("%w: host name is required", ErrIllegalInput)
	}
	if method == nil {
		return nil, fmt.Errorf("%w: authentication method is required", ErrIllegalInput)
	}
	if err := ValidateRequired(HostNameKey, hostName, hostNamePattern); err != nil {
		return nil, err
	}
	return build(hostName, method)
}

func build(hostName string, method AuthMethod) (*ConnectionString, error) {
	cs := &ConnectionString{
		hostName: hostName,
		hubName:  hubNameOf(hostName),
		method:   method,
	}
	if err := method.apply(cs); err != nil {
		return nil, err
	}
	if err := cs.validate(); err != nil {
		return nil, err
	}
	return cs, nil
}

func (cs *ConnectionString) validate() error {
	if err := ValidateRequired(HostNameKey, cs.hostName, hostNamePattern); err != nil {
		return err
	}
	if err := ValidateIfPresent(SharedAccessKeyNameKey, cs.keyName, keyNamePattern); err != nil {
		return err
	}
	if err := ValidateIfPresent(SharedAccessKeyKey, cs.key, keyPattern); err != nil {
		return err
	}
	if err := ValidateIfPresent(SharedAccessSignatureKey, cs.signature, signaturePattern); err != nil {
		return err
	}
	if strings.TrimSpace(cs.keyName) == "" {
		return fmt.Errorf("%w: %s is required", ErrIllegalInput, SharedAccessKeyNameKey)
	}
	hasKey, hasSignature := cs.key != "", cs.signature != ""
	if hasKey == hasSignature {
		return fmt.Errorf("%w: exactly one of %s or %s must be set", ErrIllegalInput, SharedAccessKeyKey, SharedAccessSignatureKey)
	}
	return nil
}

// hubNameOf returns the host name up to its first '.', or "" without one.
func hubNameOf(hostName string) string {
	name, _, ok := strings.Cut(hostName, ".")
	if !ok {
		return ""
	}
	return name
}

func (cs *ConnectionString) HostName() string              { return cs.hostName }
func (cs *ConnectionString) HubName() string               { return cs.hubName }
func (cs *ConnectionString) SharedAccessKeyName() string   { return cs.keyName }
func (cs *ConnectionString) SharedAccessKey() string       { return cs.key }
func (cs *ConnectionString) SharedAccessSignature() string { return cs.signature }
func (cs *ConnectionString) AuthMethod() AuthMethod        { return cs.method }

// UserString is the SASL user name presented to the hub.
func (cs *ConnectionString) UserString() string {
	return cs.keyName + userSASScope + cs.hubName
}

// String renders the descriptor in the fixed field order, with "null" for
// unset fields.
func (cs *ConnectionString) String() string {
	return cs.render(false)
}

// Redacted is String with the key and signature masked, for logs and output.
func (cs *ConnectionString) Redacted() string {
	return cs.render(true)
}

func (cs *ConnectionString) render(mask bool) string {
	fields := []struct {
		key, value string
		secret     bool
	}{
		{HostNameKey, cs.hostName, false},
		{SharedAccessKeyNameKey, cs.keyName, false},
		{SharedAccessKeyKey, cs.key, true},
		{SharedAccessSignatureKey, cs.signature, true},
	}
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString(pairSeparator)
		}
		b.WriteString(f.key)
		b.WriteString(keyValueSeparator)
		switch {
		case f.value == "":
			b.WriteString(unsetValue)
		case mask && f.secret:
			b.WriteString(redacted)
		default:
			b.WriteString(f.value)
		}
	}
	return b.String()
}
