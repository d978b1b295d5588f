package chunker

import (
	"strings"
	"testing"

	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

func TestChunkMonotonicPositions(t *testing.T) {
	text := strings.Repeat("This is a sentence about contract law. ", 200)
	chunks := Chunk(text, "doc1", ragmodel.DocTypeGeneral, Options{ChunkSize: 200, Overlap: 20})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Position != i {
			t.Fatalf("expected monotonic position %d, got %d", i, c.Position)
		}
		if c.DocID != "doc1" {
			t.Fatalf("expected doc id preserved")
		}
	}
}

func TestChunkQuestionKeptWhole(t *testing.T) {
	text := strings.Repeat("a", 900) // <= 2*512
	chunks := Chunk(text, "q1", ragmodel.DocTypeQuestion, Options{})
	if len(chunks) != 1 {
		t.Fatalf("expected question kept as single chunk, got %d", len(chunks))
	}
}

func TestChunkEmptyTextProducesNoChunks(t *testing.T) {
	chunks := Chunk("   \n\n  ", "doc2", ragmodel.DocTypeGeneral, Options{})
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank text, got %d", len(chunks))
	}
}

func TestChunkIDsUniquePerDocPosition(t *testing.T) {
	text := strings.Repeat("Paragraph content here. ", 100)
	chunks := Chunk(text, "doc3", ragmodel.DocTypeGeneral, Options{ChunkSize: 150})
	seen := map[string]bool{}
	for _, c := range chunks {
		if seen[c.ID] {
			t.Fatalf("duplicate chunk id %s", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestChunkLegislationArticleAtomicity(t *testing.T) {
	text := "Art. 1 Disposição preliminar.\n\nArt. 37 A administração pública obedecerá.\n§ 1º Regra um.\n§ 2º Regra dois.\n\nArt. 40 Outro artigo."
	chunks := Chunk(text, "cf", ragmodel.DocTypeLegislation, Options{ChunkSize: 2000})
	joined := ""
	for _, c := range chunks {
		joined += c.Text + " "
	}
	if !strings.Contains(joined, "Art. 37") || !strings.Contains(joined, "§ 1º") {
		t.Fatalf("expected article and its paragraphs preserved together, got %q", joined)
	}
}

func TestChunkLegislationLongArticleSplitsWithCaputHeader(t *testing.T) {
	var b strings.Builder
	b.WriteString("Art. 99 Caput inicial do artigo que define a regra geral aplicavel a todos os casos previstos nesta lei federal.\n")
	for i := 0; i < 30; i++ {
		b.WriteString("§ ")
		b.WriteString(strings.Repeat("x", 1))
		b.WriteString(" Paragrafo com texto substancial para forcar a divisao do artigo em múltiplos pedaços de tamanho limitado.\n")
	}
	chunks := Chunk(b.String(), "long-art", ragmodel.DocTypeLegislation, Options{ChunkSize: 300})
	if len(chunks) < 2 {
		t.Fatalf("expected long article to split into multiple chunks, got %d", len(chunks))
	}
}
