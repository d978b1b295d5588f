// Package ragmodel holds the shared data model for the legal RAG core:
// chunks, scopes, jurisdictions, routing decisions, ranked lists and
// traces. These types are owned by no single component; they are the
// contract every component (embedding, lexical, vector, router,
// pipeline, ...) reads and writes.
package ragmodel

import "time"

// ScopeKind discriminates the five visibility variants a Chunk can carry.
// Each variant owns its own visibility predicate; see Scope.Allows.
type ScopeKind string

const (
	ScopeGlobal  ScopeKind = "global"
	ScopePrivate ScopeKind = "private"
	ScopeGroup   ScopeKind = "group"
	ScopeLocal   ScopeKind = "local"
	ScopePublic  ScopeKind = "public" // sigilo sub-level, orthogonal to the above
)

// Scope is the discriminated enum of spec.md §3. A chunk's scope is
// immutable after ingestion; promotion requires a new chunk write and
// deletion of the old one (see corpus.Manager.Promote).
type Scope struct {
	Kind ScopeKind

	// TenantID is required for Private, Group and Local.
	TenantID string
	// GroupIDs is non-empty only for Group scope.
	GroupIDs []string
	// CaseID is required for Local.
	CaseID string
	// TTL is honored only for Local; zero means no expiry tracked here
	// (corpus.Manager applies the configured default).
	TTL time.Duration
}

// Sigilo is the confidentiality sub-tag orthogonal to Scope: a chunk can
// be scope=GLOBAL and sigilo=restricted at the same time.
type Sigilo string

const (
	SigiloPublic Sigilo = "public"
	SigiloRestricted Sigilo = "restricted"
)

// Jurisdiction enumerates the six supported legal jurisdictions. Each
// maps 1-to-1 to a default embedding collection and provider (§4.D).
type Jurisdiction string

const (
	JurisdictionBR      Jurisdiction = "BR"
	JurisdictionUS      Jurisdiction = "US"
	JurisdictionUK      Jurisdiction = "UK"
	JurisdictionEU      Jurisdiction = "EU"
	JurisdictionINT     Jurisdiction = "INT"
	JurisdictionGeneral Jurisdiction = "GENERAL"
)

// DocumentType enumerates the legal document types the chunker and
// router both reason about.
type DocumentType string

const (
	DocTypeLegislation   DocumentType = "legislation"
	DocTypeJurisprudence DocumentType = "jurisprudence"
	DocTypeContract      DocumentType = "contract"
	DocTypeDoctrine      DocumentType = "doctrine"
	DocTypePleading      DocumentType = "pleading"
	DocTypeQuestion      DocumentType = "question"
	DocTypeGeneral       DocumentType = "general"
)

// ChunkMetadata carries the stable, case-sensitive fields every backend
// store persists alongside a chunk (spec.md §6 "Persisted state layout").
type ChunkMetadata struct {
	TenantID     string
	CaseID       string
	GroupIDs     []string
	Sigilo       Sigilo
	AllowedUsers []string
	Scope        ScopeKind
	Jurisdiction Jurisdiction
	DocumentType DocumentType
	SourceID     string
	Page         int
	UploadedAt   time.Time
	Extra        map[string]any
}

// Chunk is a retrieved or indexed passage. Invariant: the pair
// (DocID, Position) is unique within a document.
type Chunk struct {
	ID                string
	Text              string
	Position          int
	DocID             string
	SourceCollection  string
	Score             float64 // provider-native, not comparable across providers
	FusedScore        float64
	HasFusedScore     bool
	Metadata          ChunkMetadata
}

// RankedItem is one entry of a RankedList: a chunk id plus its score in
// this list's namespace (provider score, RRF score, rerank score, ...).
type RankedItem struct {
	ChunkID string
	Score   float64
	Chunk   *Chunk // optional payload, carried through fusion/rerank/expand/compress
}
