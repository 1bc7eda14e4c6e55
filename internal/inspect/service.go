package inspect

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"hublink.dev/internal/audit"
	"hublink.dev/internal/connstr"
	"hublink.dev/internal/ids"
	"hublink.dev/internal/obs"
	"hublink.dev/internal/twin"
)

// Service defines the operations hubctl runs against descriptors and twin
// documents.
type Service interface {
	ParseDescriptor(ctx context.Context, descriptor string) (DescriptorReport, error)
	Build(ctx context.Context, hostName string, method connstr.AuthMethod) (DescriptorReport, error)
	IssueToken(ctx context.Context, conn *connstr.ConnectionString, ttl time.Duration) (TokenReport, error)
	ExtractMetadata(ctx context.Context, doc any) (MetadataReport, error)
}

// Inspector implements Service on top of connstr and twin. It keeps no
// state between calls besides its clock and id source.
type Inspector struct {
	now   func() time.Time
	newID func() string
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithClock overrides time.Now, used when signing tokens.
func WithClock(now func() time.Time) Option {
	return func(i *Inspector) { i.now = now }
}

// WithIDs overrides the request id source.
func WithIDs(newID func() string) Option {
	return func(i *Inspector) { i.newID = newID }
}

// New returns an Inspector.
func New(opts ...Option) *Inspector {
	i := &Inspector{now: time.Now, newID: ids.New}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

var _ Service = (*Inspector)(nil)

// withRequest reuses the caller's request id or mints one.
func (i *Inspector) withRequest(ctx context.Context) (context.Context, string) {
	if rid := audit.RequestID(ctx); rid != "" {
		return ctx, rid
	}
	rid := i.newID()
	return audit.WithRequestID(ctx, rid), rid
}

func (i *Inspector) ParseDescriptor(ctx context.Context, descriptor string) (DescriptorReport, error) {
	ctx, rid := i.withRequest(ctx)
	cs, err := connstr.Parse(descriptor)
	return i.report(ctx, rid, "parse", cs, err)
}

func (i *Inspector) Build(ctx context.Context, hostName string, method connstr.AuthMethod) (DescriptorReport, error) {
	ctx, rid := i.withRequest(ctx)
	cs, err := connstr.New(hostName, method)
	return i.report(ctx, rid, "new", cs, err)
}

func (i *Inspector) report(ctx context.Context, rid, entry string, cs *connstr.ConnectionString, err error) (DescriptorReport, error) {
	if err != nil {
		obs.ObserveParse(entry, resultOf(err))
		obs.Log(obs.LevelWarn, "descriptor rejected", map[string]any{
			"request_id": rid,
			"entry":      entry,
			"error":      err.Error(),
		})
		return DescriptorReport{}, err
	}
	obs.ObserveParse(entry, obs.ResultOK)

	r := DescriptorReport{
		RequestID:  rid,
		HostName:   cs.HostName(),
		HubName:    cs.HubName(),
		KeyName:    cs.SharedAccessKeyName(),
		AuthKind:   cs.AuthMethod().Kind(),
		UserString: cs.UserString(),
		Descriptor: cs.Redacted(),
		conn:       cs,
	}
	if err := audit.LogEvent(ctx, "descriptor."+entry, map[string]any{
		"host_name": r.HostName,
		"hub_name":  r.HubName,
		"key_name":  r.KeyName,
		"auth_kind": string(r.AuthKind),
	}); err != nil {
		return DescriptorReport{}, err
	}
	return r, nil
}

// IssueToken returns a credential for conn. Key-based identities sign a
// token valid for ttl; identities that already hold a signature return it.
func (i *Inspector) IssueToken(ctx context.Context, conn *connstr.ConnectionString, ttl time.Duration) (TokenReport, error) {
	if conn == nil {
		return TokenReport{}, ErrMissingIdentity
	}
	ctx, rid := i.withRequest(ctx)
	if ttl <= 0 {
		ttl = connstr.DefaultTokenTTL
	}

	now := i.now()
	token, err := conn.Token(now, ttl)
	if err != nil {
		obs.Log(obs.LevelWarn, "token signing failed", map[string]any{
			"request_id": rid,
			"host_name":  conn.HostName(),
			"error":      err.Error(),
		})
		return TokenReport{}, err
	}

	r := TokenReport{
		RequestID: rid,
		HostName:  conn.HostName(),
		KeyName:   conn.SharedAccessKeyName(),
		Token:     token,
	}
	fields := map[string]any{"host_name": r.HostName, "key_name": r.KeyName}
	if conn.SharedAccessSignature() == "" {
		expires := now.Add(ttl).UTC().Truncate(time.Second)
		r.Signed, r.ExpiresAt = true, &expires
		fields["expires_at"] = expires.Format(time.RFC3339)
	}
	fields["signed"] = r.Signed
	if err := audit.LogEvent(ctx, "token.issued", fields); err != nil {
		return TokenReport{}, err
	}
	return r, nil
}

// ExtractMetadata walks a decoded property document and collects the
// metadata of every map node, the root included. Twin documents carry one
// $metadata block per property, so a single document usually yields several
// entries. The first malformed block fails the whole walk.
func (i *Inspector) ExtractMetadata(ctx context.Context, doc any) (MetadataReport, error) {
	ctx, rid := i.withRequest(ctx)
	r := MetadataReport{RequestID: rid, Entries: []MetadataEntry{}}

	err := walk(".", doc, func(path string, node any) error {
		m, err := twin.TryExtractFromMap(node)
		switch {
		case err != nil:
			obs.ObserveExtract(resultOf(err))
			return fmt.Errorf("%s: %w", path, err)
		case m == nil:
			obs.ObserveExtract(obs.ResultEmpty)
		default:
			obs.ObserveExtract(obs.ResultOK)
			r.Entries = append(r.Entries, MetadataEntry{Path: path, Metadata: m})
		}
		return nil
	})
	if err != nil {
		obs.Log(obs.LevelWarn, "metadata rejected", map[string]any{
			"request_id": rid,
			"error":      err.Error(),
		})
		return MetadataReport{}, err
	}

	if err := audit.LogEvent(ctx, "metadata.extracted", map[string]any{"entries": len(r.Entries)}); err != nil {
		return MetadataReport{}, err
	}
	return r, nil
}

// walk visits every map node depth first with keys in sorted order. Lists
// are descended into with their index as the path segment.
func walk(path string, node any, visit func(path string, node any) error) error {
	rv := reflect.ValueOf(node)
	switch rv.Kind() {
	case reflect.Map:
		if err := visit(path, node); err != nil {
			return err
		}
		keys := make([]string, 0, rv.Len())
		byName := make(map[string]reflect.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			name := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, name)
			byName[name] = iter.Value()
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := walk(join(path, k), byName[k].Interface(), visit); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for idx := 0; idx < rv.Len(); idx++ {
			if err := walk(join(path, fmt.Sprint(idx)), rv.Index(idx).Interface(), visit); err != nil {
				return err
			}
		}
	}
	return nil
}

func join(path, key string) string {
	if path == "." {
		return key
	}
	return strings.Join([]string{path, key}, ".")
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, connstr.ErrFormat), errors.Is(err, twin.ErrFormat):
		return obs.ResultFormat
	case errors.Is(err, connstr.ErrIllegalInput), errors.Is(err, twin.ErrIllegalInput):
		return obs.ResultIllegal
	}
	return "error"
}
