package inspect

import (
	"errors"
	"time"

	"hublink.dev/internal/connstr"
	"hublink.dev/internal/twin"
)

// DescriptorReport summarizes a validated connection identity. Descriptor is
// the canonical form with secrets masked.
type DescriptorReport struct {
	RequestID  string           `json:"request_id"`
	HostName   string           `json:"host_name"`
	HubName    string           `json:"hub_name"`
	KeyName    string           `json:"key_name"`
	AuthKind   connstr.AuthKind `json:"auth_kind"`
	UserString string           `json:"user_string"`
	Descriptor string           `json:"descriptor"`

	conn *connstr.ConnectionString
}

// Connection is the parsed identity behind the report.
func (r DescriptorReport) Connection() *connstr.ConnectionString { return r.conn }

// TokenReport carries a service credential. ExpiresAt is nil when the
// identity already held a signature and nothing was signed.
type TokenReport struct {
	RequestID string     `json:"request_id"`
	HostName  string     `json:"host_name"`
	KeyName   string     `json:"key_name"`
	Token     string     `json:"token"`
	Signed    bool       `json:"signed"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// MetadataEntry is the metadata found at one node of a property document.
// Path is dot-joined from the root; the root itself is ".".
type MetadataEntry struct {
	Path     string         `json:"path"`
	Metadata *twin.Metadata `json:"metadata"`
}

// MetadataReport lists every metadata record of a document in path order.
type MetadataReport struct {
	RequestID string          `json:"request_id"`
	Entries   []MetadataEntry `json:"entries"`
}

var (
	ErrEmptyDocument   = errors.New("inspect: empty document")
	ErrUnknownFormat   = errors.New("inspect: unknown document format")
	ErrDocumentDecode  = errors.New("inspect: document is not valid JSON or YAML")
	ErrMissingIdentity = errors.New("inspect: descriptor or host credentials required")
)
