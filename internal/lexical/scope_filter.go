package lexical

import "github.com/semaj90/legal-rag-core/internal/ragmodel"

// ScopeFilter is the caller's visibility context (spec.md §4.B): a
// request without TenantID sees only GLOBAL chunks, and a request
// without UserID sees only sigilo=public chunks (see Allows).
type ScopeFilter struct {
	TenantID     string
	CaseID       string
	GroupIDs     []string
	UserID       string
	AllowedUsers []string
}

// Allows reports whether meta is visible under f, implementing spec.md
// §3's Scope.Allows predicate: exactly one of
// {global, private(tenant), group(tenant+group intersection), local(tenant+case)}
// must match, AND a sigilo predicate (public OR user_id in allowed_users).
// A filter with no TenantID restricts non-global chunks to zero results,
// and restricts to sigilo=public only when UserID is also empty.
func Allows(meta ragmodel.ChunkMetadata, f ScopeFilter) bool {
	if !scopeMatches(meta, f) {
		return false
	}
	return sigiloMatches(meta, f)
}

func scopeMatches(meta ragmodel.ChunkMetadata, f ScopeFilter) bool {
	switch meta.Scope {
	case ragmodel.ScopeGlobal:
		return true
	case ragmodel.ScopePrivate:
		return f.TenantID != "" && meta.TenantID == f.TenantID
	case ragmodel.ScopeGroup:
		if f.TenantID == "" || meta.TenantID != f.TenantID {
			return false
		}
		return groupsIntersect(meta.GroupIDs, f.GroupIDs)
	case ragmodel.ScopeLocal:
		return f.TenantID != "" && meta.TenantID == f.TenantID &&
			f.CaseID != "" && meta.CaseID == f.CaseID
	default:
		return false
	}
}

func sigiloMatches(meta ragmodel.ChunkMetadata, f ScopeFilter) bool {
	if meta.Sigilo == ragmodel.SigiloPublic || meta.Sigilo == "" {
		return true
	}
	if f.UserID == "" {
		return false
	}
	for _, u := range meta.AllowedUsers {
		if u == f.UserID {
			return true
		}
	}
	return false
}

func groupsIntersect(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, g := range a {
		set[g] = struct{}{}
	}
	for _, g := range b {
		if _, ok := set[g]; ok {
			return true
		}
	}
	return false
}
