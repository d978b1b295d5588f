// Package chunker implements legal-aware text segmentation (spec.md
// §4.E), grounded on original_source/apps/neo4j-rag/neo4j_rag/ingest/chunker.py
// and generalized to the document types of ragmodel.DocumentType.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

const (
	DefaultChunkSize = 512
	DefaultOverlap   = 50
	maxCaputChars    = 300
)

var (
	separatorsLegislation = []string{
		"\nLIVRO", "\nTÍTULO", "\nCAPÍTULO", "\nSeção", "\nSubseção",
		"\nArt.", "\n\n", "\n", ". ", " ",
	}
	separatorsJurisprudence = []string{
		"\nEMENTA", "\nACÓRDÃO", "\nRELATÓRIO", "\nVOTO", "\nDISPOSITIVO",
		"\n\n", "\n", ". ", " ",
	}
	separatorsDefault = []string{"\n\n", "\n", ". ", " "}

	reArtigoStart = regexp.MustCompile(`(?m)^\s*Art\.\s*\d+`)
	reParagrafo   = regexp.MustCompile(`(?m)\n\s*(?:§\s*\d+|Parágrafo único|inciso\s+[IVXLCDM]+)`)
)

func separatorsFor(docType ragmodel.DocumentType) []string {
	switch docType {
	case ragmodel.DocTypeLegislation:
		return separatorsLegislation
	case ragmodel.DocTypeJurisprudence:
		return separatorsJurisprudence
	default:
		return separatorsDefault
	}
}

func makeChunkID(docID string, position int) string {
	raw := fmt.Sprintf("%s:%d", docID, position)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:16]
}

// Options configures one call to Chunk.
type Options struct {
	ChunkSize int
	Overlap   int
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Overlap < 0 {
		o.Overlap = DefaultOverlap
	}
	return o
}

// Chunk segments text into an ordered sequence of ragmodel.Chunk with
// monotonic Position starting at 0 (spec.md §4.E). docID and docType
// drive the separator hierarchy and special-casing (atomic articles,
// whole-document questions).
func Chunk(text, docID string, docType ragmodel.DocumentType, opts Options) []ragmodel.Chunk {
	opts = opts.withDefaults()

	// Questions: keep whole if <= 2x chunk_size.
	if docType == ragmodel.DocTypeQuestion && len(text) <= 2*opts.ChunkSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []ragmodel.Chunk{{
			ID:       makeChunkID(docID, 0),
			Text:     trimmed,
			Position: 0,
			DocID:    docID,
		}}
	}

	var raw []string
	if docType == ragmodel.DocTypeLegislation {
		raw = chunkLegislation(text, opts)
	} else {
		raw = splitBySeparators(text, separatorsFor(docType), opts.ChunkSize, opts.Overlap)
	}

	out := make([]ragmodel.Chunk, 0, len(raw))
	pos := 0
	for _, r := range raw {
		trimmed := strings.TrimSpace(r)
		if trimmed == "" {
			continue
		}
		out = append(out, ragmodel.Chunk{
			ID:       makeChunkID(docID, pos),
			Text:     trimmed,
			Position: pos,
			DocID:    docID,
		})
		pos++
	}
	return out
}

// splitBySeparators is a recursive character splitter with hierarchical
// separators: it splits on the first separator producing more than one
// non-empty part, accumulating parts into chunks up to chunkSize, and
// carrying an overlap tail into the next chunk.
func splitBySeparators(text string, separators []string, chunkSize, overlap int) []string {
	if len(text) <= chunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	sep := " "
	remaining := []string{" "}
	if len(separators) > 0 {
		sep = separators[0]
		if len(separators) > 1 {
			remaining = separators[1:]
		}
	}

	parts := strings.Split(text, sep)
	if len(parts) == 1 && len(remaining) > 0 {
		return splitBySeparators(text, remaining, chunkSize, overlap)
	}

	var chunks []string
	current := ""
	for _, part := range parts {
		var candidate string
		if current != "" {
			candidate = current + sep + part
		} else {
			candidate = part
		}
		if len(candidate) > chunkSize && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
			if overlap > 0 && len(current) > overlap {
				current = current[len(current)-overlap:] + sep + part
			} else {
				current = part
			}
		} else {
			current = candidate
		}
	}
	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	result := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if len(c) > chunkSize && len(remaining) > 0 {
			result = append(result, splitBySeparators(c, remaining, chunkSize, overlap)...)
		} else {
			result = append(result, c)
		}
	}
	return result
}

// chunkLegislation applies the article-atomicity rule: an "Art. N" unit
// and its following §/inciso subunits are never split unless the whole
// article exceeds chunkSize, in which case it is split at §/inciso
// boundaries with the caput prepended as a context header to each piece.
func chunkLegislation(text string, opts Options) []string {
	parts := splitBySeparators(text, separatorsLegislation, opts.ChunkSize, opts.Overlap)

	var out []string
	for _, p := range parts {
		if reArtigoStart.MatchString(p) && len(p) > opts.ChunkSize {
			out = append(out, splitLongArticle(p, opts.ChunkSize)...)
		} else {
			out = append(out, p)
		}
	}
	return out
}

func extractCaput(articleText string) string {
	lines := strings.Split(strings.TrimSpace(articleText), "\n")
	var caput []string
	for _, line := range lines {
		if reParagrafo.MatchString("\n"+line) && len(caput) > 0 {
			break
		}
		caput = append(caput, line)
		if len(strings.Join(caput, "\n")) > maxCaputChars {
			break
		}
	}
	return strings.Join(caput, "\n")
}

func splitLongArticle(articleText string, chunkSize int) []string {
	caput := extractCaput(articleText)
	header := "[...continuação do artigo...]\n" + caput + "\n"

	parts := reParagrafo.Split(articleText, -1)
	if len(parts) <= 1 {
		return splitBySeparators(articleText, separatorsDefault, chunkSize, 0)
	}

	var chunks []string
	current := header
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(current)+len(p)+1 > chunkSize && current != header {
			chunks = append(chunks, current)
			current = header
		}
		current += p + "\n"
	}
	if strings.TrimSpace(current) != "" && current != header {
		chunks = append(chunks, current)
	}
	return chunks
}
