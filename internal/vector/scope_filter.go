package vector

import "github.com/semaj90/legal-rag-core/internal/ragmodel"

// Allows implements the same scope/sigilo predicate as
// internal/lexical.Allows (spec.md §4.C: "Payload filter semantics
// mirror §4.B"). Duplicated rather than shared because the two
// adapters evolve independently store-side (Qdrant payload filters vs.
// Postgres WHERE clauses may someday push this down natively).
func Allows(meta ragmodel.ChunkMetadata, f Filter) bool {
	if !scopeMatches(meta, f) {
		return false
	}
	return sigiloMatches(meta, f)
}

func scopeMatches(meta ragmodel.ChunkMetadata, f Filter) bool {
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

func sigiloMatches(meta ragmodel.ChunkMetadata, f Filter) bool {
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
