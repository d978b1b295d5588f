package router

import (
	"context"
	"strconv"
	"strings"

	"github.com/semaj90/legal-rag-core/internal/llm"
	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

const llmClassifierSystemPrompt = "You are a legal text classifier."

func buildClassificationPrompt(text string) string {
	snippet := text
	if len(snippet) > 1500 {
		snippet = snippet[:1500]
	}
	var b strings.Builder
	b.WriteString("Analyze the following text and classify it.\n\nTEXT:\n")
	b.WriteString(snippet)
	b.WriteString("\n\nRespond in exactly this format (one line each):\n")
	b.WriteString("JURISDICTION: BR|US|UK|EU|INT|GENERAL\n")
	b.WriteString("DOCUMENT_TYPE: legislation|jurisprudence|contract|doctrine|pleading|general\n")
	b.WriteString("LANGUAGE: pt|en|de|fr|es|other\n")
	b.WriteString("CONFIDENCE: 0.0-1.0\n")
	b.WriteString("REASON: brief explanation\n")
	return b.String()
}

var llmJurisdictionMap = map[string]ragmodel.Jurisdiction{
	"BR": ragmodel.JurisdictionBR, "US": ragmodel.JurisdictionUS,
	"UK": ragmodel.JurisdictionUK, "EU": ragmodel.JurisdictionEU,
	"INT": ragmodel.JurisdictionINT, "GENERAL": ragmodel.JurisdictionGeneral,
}

var llmDocTypeMap = map[string]ragmodel.DocumentType{
	"legislation": ragmodel.DocTypeLegislation, "jurisprudence": ragmodel.DocTypeJurisprudence,
	"contract": ragmodel.DocTypeContract, "doctrine": ragmodel.DocTypeDoctrine,
	"pleading": ragmodel.DocTypePleading, "general": ragmodel.DocTypeGeneral,
}

// parseLLMClassification parses the line-oriented JURISDICTION/
// DOCUMENT_TYPE/LANGUAGE/CONFIDENCE/REASON response the classifier
// prompt asks for (spec.md §4.D layer 2).
func parseLLMClassification(response string) ragmodel.RoutingDecision {
	fields := map[string]string{}
	for _, line := range strings.Split(response, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	jurisdiction, ok := llmJurisdictionMap[strings.ToUpper(fields["JURISDICTION"])]
	if !ok {
		jurisdiction = ragmodel.JurisdictionGeneral
	}
	docType, ok := llmDocTypeMap[strings.ToLower(fields["DOCUMENT_TYPE"])]
	if !ok {
		docType = ragmodel.DocTypeGeneral
	}
	confidence := 0.7
	if v, err := strconv.ParseFloat(fields["CONFIDENCE"], 64); err == nil {
		confidence = v
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	language := strings.ToLower(fields["LANGUAGE"])
	if language == "" {
		language = "unknown"
	}
	reason := fields["REASON"]
	if reason == "" {
		reason = "classified via llm"
	}

	return ragmodel.RoutingDecision{
		Jurisdiction: jurisdiction,
		DocumentType: docType,
		Language:     language,
		Confidence:   confidence,
		Method:       ragmodel.MethodLLM,
		Reason:       reason,
	}
}

// classifyWithLLM asks generator for a classification, parsing its
// response into a RoutingDecision. Returns an error only on generator
// failure; a parse failure of a malformed response degrades gracefully
// to a GENERAL/low-confidence decision rather than erroring, since the
// caller's layer-3 fallback can absorb it.
func classifyWithLLM(ctx context.Context, generator llm.Generator, text string, maxTokens int) (ragmodel.RoutingDecision, error) {
	prompt := buildClassificationPrompt(text)
	out, err := generator.Generate(ctx, llmClassifierSystemPrompt, prompt, maxTokens)
	if err != nil {
		return ragmodel.RoutingDecision{}, err
	}
	return parseLLMClassification(out), nil
}
