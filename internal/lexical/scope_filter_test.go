package lexical

import (
	"testing"

	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

func TestAllowsGlobalAlwaysVisible(t *testing.T) {
	meta := ragmodel.ChunkMetadata{Scope: ragmodel.ScopeGlobal, Sigilo: ragmodel.SigiloPublic}
	if !Allows(meta, ScopeFilter{}) {
		t.Fatalf("expected global+public chunk visible with no filter")
	}
}

func TestAllowsPrivateRequiresMatchingTenant(t *testing.T) {
	meta := ragmodel.ChunkMetadata{Scope: ragmodel.ScopePrivate, TenantID: "t1", Sigilo: ragmodel.SigiloPublic}
	if Allows(meta, ScopeFilter{}) {
		t.Fatalf("expected private chunk denied with no tenant_id")
	}
	if Allows(meta, ScopeFilter{TenantID: "t2"}) {
		t.Fatalf("expected private chunk denied with wrong tenant_id")
	}
	if !Allows(meta, ScopeFilter{TenantID: "t1"}) {
		t.Fatalf("expected private chunk visible with matching tenant_id")
	}
}

func TestAllowsGroupRequiresIntersection(t *testing.T) {
	meta := ragmodel.ChunkMetadata{
		Scope: ragmodel.ScopeGroup, TenantID: "t1", GroupIDs: []string{"g1", "g2"},
		Sigilo: ragmodel.SigiloPublic,
	}
	if Allows(meta, ScopeFilter{TenantID: "t1", GroupIDs: []string{"g3"}}) {
		t.Fatalf("expected denied with disjoint groups")
	}
	if !Allows(meta, ScopeFilter{TenantID: "t1", GroupIDs: []string{"g2", "g9"}}) {
		t.Fatalf("expected visible with intersecting groups")
	}
}

func TestAllowsLocalRequiresTenantAndCase(t *testing.T) {
	meta := ragmodel.ChunkMetadata{Scope: ragmodel.ScopeLocal, TenantID: "t1", CaseID: "c1", Sigilo: ragmodel.SigiloPublic}
	if Allows(meta, ScopeFilter{TenantID: "t1"}) {
		t.Fatalf("expected denied without matching case_id")
	}
	if !Allows(meta, ScopeFilter{TenantID: "t1", CaseID: "c1"}) {
		t.Fatalf("expected visible with matching tenant+case")
	}
}

func TestAllowsRestrictedSigiloRequiresAllowedUser(t *testing.T) {
	meta := ragmodel.ChunkMetadata{
		Scope: ragmodel.ScopeGlobal, Sigilo: ragmodel.SigiloRestricted, AllowedUsers: []string{"u1"},
	}
	if Allows(meta, ScopeFilter{}) {
		t.Fatalf("expected denied with no user_id")
	}
	if Allows(meta, ScopeFilter{UserID: "u2"}) {
		t.Fatalf("expected denied for non-allowed user")
	}
	if !Allows(meta, ScopeFilter{UserID: "u1"}) {
		t.Fatalf("expected visible for allowed user")
	}
}

func TestAllowsNoUserIDRestrictsToPublicSigilo(t *testing.T) {
	publicMeta := ragmodel.ChunkMetadata{Scope: ragmodel.ScopeGlobal, Sigilo: ragmodel.SigiloPublic}
	restrictedMeta := ragmodel.ChunkMetadata{Scope: ragmodel.ScopeGlobal, Sigilo: ragmodel.SigiloRestricted, AllowedUsers: []string{"u1"}}
	if !Allows(publicMeta, ScopeFilter{}) {
		t.Fatalf("expected public chunk visible with no user_id")
	}
	if Allows(restrictedMeta, ScopeFilter{}) {
		t.Fatalf("expected restricted chunk denied with no user_id")
	}
}
