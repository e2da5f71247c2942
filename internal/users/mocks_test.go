package users

import (
	"context"
	"slices"
	"strings"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/mock"

	"github.com/maniacs-satm/meemo/internal/ldap"
)

// MockClient implements ldap.Client for testing Directory.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Connect(ctx context.Context) (ldap.Conn, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	conn, ok := args.Get(0).(ldap.Conn)
	if !ok {
		return nil, args.Error(1)
	}
	return conn, args.Error(1)
}

// MockConn implements ldap.Conn for testing Directory.
type MockConn struct {
	mock.Mock
}

func (m *MockConn) Bind(ctx context.Context, dn, password string) error {
	args := m.Called(ctx, dn, password)
	return args.Error(0)
}

func (m *MockConn) BindWithConfig(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockConn) Search(ctx context.Context, req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	result, ok := args.Get(0).(*ldap.SearchResult)
	if !ok {
		return nil, args.Error(1)
	}
	return result, args.Error(1)
}

func (m *MockConn) SearchWithPaging(ctx context.Context, req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	result, ok := args.Get(0).(*ldap.SearchResult)
	if !ok {
		return nil, args.Error(1)
	}
	return result, args.Error(1)
}

func (m *MockConn) Close() error {
	args := m.Called()
	return args.Error(0)
}

func results(entries ...*goldap.Entry) *ldap.SearchResult {
	return &ldap.SearchResult{Entries: entries, Total: len(entries)}
}

// fakeDirectory is an in-memory ldap.Client. Search understands the filters
// built by ldap.IdentifierFilter, optionally ANDed with an (objectClass=...)
// user filter; SearchWithPaging applies only the user filter.
type fakeDirectory struct {
	entries []*goldap.Entry
	attrs   AttributeMap
}

func (f *fakeDirectory) Connect(context.Context) (ldap.Conn, error) {
	return f, nil
}

func (f *fakeDirectory) Bind(context.Context, string, string) error { return nil }
func (f *fakeDirectory) BindWithConfig(context.Context) error       { return nil }
func (f *fakeDirectory) Close() error                               { return nil }

func (f *fakeDirectory) Search(_ context.Context, req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	var matched []*goldap.Entry
	for _, entry := range f.inClass(req.Filter) {
		for _, attr := range []string{f.attrs.ID, f.attrs.Mail, f.attrs.Username} {
			v := entry.GetEqualFoldAttributeValue(attr)
			if v != "" && strings.Contains(req.Filter, "("+attr+"="+goldap.EscapeFilter(v)+")") {
				matched = append(matched, entry)
				break
			}
		}
	}
	if req.SizeLimit > 0 && len(matched) > req.SizeLimit {
		return &ldap.SearchResult{Entries: matched[:req.SizeLimit], Total: req.SizeLimit, Truncated: true}, nil
	}
	return results(matched...), nil
}

func (f *fakeDirectory) SearchWithPaging(_ context.Context, req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	return results(f.inClass(req.Filter)...), nil
}

// inClass returns the entries carrying the object class named by the
// leading (objectClass=...) clause of filter. A wildcard keeps them all.
func (f *fakeDirectory) inClass(filter string) []*goldap.Entry {
	rest, ok := strings.CutPrefix(strings.TrimPrefix(filter, "(&"), "(objectClass=")
	class, _, _ := strings.Cut(rest, ")")
	if !ok || class == "*" {
		return f.entries
	}

	var kept []*goldap.Entry
	for _, entry := range f.entries {
		if slices.ContainsFunc(entry.GetEqualFoldAttributeValues("objectClass"), func(v string) bool {
			return strings.EqualFold(v, class)
		}) {
			kept = append(kept, entry)
		}
	}
	return kept
}
