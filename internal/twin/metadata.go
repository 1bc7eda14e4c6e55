package twin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Reserved property keys carrying write provenance.
const (
	LastUpdatedKey         = "$lastUpdated"
	LastUpdatedVersionKey  = "$lastUpdatedVersion"
	LastUpdatedByKey       = "$lastUpdatedBy"
	LastUpdatedByDigestKey = "$lastUpdatedByDigest"
)

// Metadata is the provenance of a twin property: when it was last written,
// at which version, and by whom. The zero value has no fields set.
type Metadata struct {
	lastUpdated     time.Time
	hasLastUpdated  bool
	version         int64
	hasVersion      bool
	updatedBy       string
	updatedByDigest string
}

// NewMetadata builds a record from typed values. An empty lastUpdated or a
// nil version means absent, and at least one of the two must be present.
func NewMetadata(lastUpdated string, version *int64, updatedBy, updatedByDigest string) (*Metadata, error) {
	m := &Metadata{updatedBy: updatedBy, updatedByDigest: updatedByDigest}
	if lastUpdated != "" {
		ts, err := ParseTimestamp(lastUpdated)
		if err != nil {
			return nil, err
		}
		m.lastUpdated, m.hasLastUpdated = ts, true
	}
	if version != nil {
		m.version, m.hasVersion = *version, true
	}
	if !m.hasLastUpdated && !m.hasVersion {
		return nil, fmt.Errorf("%w: metadata needs %s or %s", ErrIllegalInput, LastUpdatedKey, LastUpdatedVersionKey)
	}
	return m, nil
}

// CopyMetadata returns a field-for-field copy of src.
func CopyMetadata(src *Metadata) (*Metadata, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: metadata to copy is nil", ErrIllegalInput)
	}
	cp := *src
	return &cp, nil
}

// TryExtractFromMap reads the reserved $-keys out of a property bag. It
// returns nil without error when value is not map-like or carries neither a
// timestamp nor a version. Keys other than the reserved ones are ignored.
func TryExtractFromMap(value any) (*Metadata, error) {
	props, ok := asProperties(value)
	if !ok {
		return nil, nil
	}

	m := &Metadata{}
	if raw, ok := props.Lookup(LastUpdatedKey); ok && raw != nil {
		switch v := raw.(type) {
		case string:
			if v != "" {
				ts, err := ParseTimestamp(v)
				if err != nil {
					return nil, err
				}
				m.lastUpdated, m.hasLastUpdated = ts, true
			}
		case time.Time:
			m.lastUpdated, m.hasLastUpdated = v.UTC(), true
		default:
			return nil, fmt.Errorf("%w: %s has type %T", ErrFormat, LastUpdatedKey, raw)
		}
	}
	if raw, ok := props.Lookup(LastUpdatedVersionKey); ok && raw != nil {
		v, err := toInt64(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", LastUpdatedVersionKey, err)
		}
		m.version, m.hasVersion = v, true
	}
	if raw, ok := props.Lookup(LastUpdatedByKey); ok && raw != nil {
		m.updatedBy = fmt.Sprint(raw)
	}
	if raw, ok := props.Lookup(LastUpdatedByDigestKey); ok && raw != nil {
		m.updatedByDigest = fmt.Sprint(raw)
	}

	if !m.hasLastUpdated && !m.hasVersion {
		return nil, nil
	}
	return m, nil
}

func (m Metadata) LastUpdated() (time.Time, bool)    { return m.lastUpdated, m.hasLastUpdated }
func (m Metadata) LastUpdatedVersion() (int64, bool) { return m.version, m.hasVersion }
func (m Metadata) LastUpdatedBy() (string, bool)     { return m.updatedBy, m.updatedBy != "" }

func (m Metadata) LastUpdatedByDigest() (string, bool) {
	return m.updatedByDigest, m.updatedByDigest != ""
}

// MarshalJSON writes the set fields in the order $lastUpdated,
// $lastUpdatedVersion, $lastUpdatedBy, $lastUpdatedByDigest.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	write := func(key string, value any) error {
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	if m.hasLastUpdated {
		if err := write(LastUpdatedKey, FormatTimestamp(m.lastUpdated)); err != nil {
			return nil, err
		}
	}
	if m.hasVersion {
		if err := write(LastUpdatedVersionKey, m.version); err != nil {
			return nil, err
		}
	}
	if m.updatedBy != "" {
		if err := write(LastUpdatedByKey, m.updatedBy); err != nil {
			return nil, err
		}
	}
	if m.updatedByDigest != "" {
		if err := write(LastUpdatedByDigestKey, m.updatedByDigest); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the output of MarshalJSON. An object without a
// timestamp or version leaves m empty.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", ErrFormat, err)
	}
	parsed, err := TryExtractFromMap(raw)
	if err != nil {
		return err
	}
	if parsed == nil {
		*m = Metadata{}
		return nil
	}
	*m = *parsed
	return nil
}

// String is the indented JSON form.
func (m Metadata) String() string {
	compact, err := m.MarshalJSON()
	if err != nil {
		return "{}"
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return string(compact)
	}
	return out.String()
}
