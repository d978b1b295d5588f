package router

import (
	"regexp"
	"strings"

	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

var cnjPattern = regexp.MustCompile(`\d{7}-\d{2}\.\d{4}\.\d\.\d{2}\.\d{4}`)
var uscPattern = regexp.MustCompile(`\d+\s+U\.?S\.?C\.?\s*§?\s*\d+`)
var euRegPattern = regexp.MustCompile(`(?i)(Regulation|Directive|Decision)\s*\((?:EU|EC|EEC)\)\s*(?:No\.?\s*)?\d+/\d+`)

var brKeywords = []string{
	"stf", "stj", "tst", "trf", "tjsp", "tjrj", "tjmg", "tjrs",
	"lei nº", "lei número", "lei n.", "decreto nº", "decreto-lei",
	"medida provisória", "emenda constitucional", "constituição federal",
	"código civil", "código penal", "código de processo", "cpc", "cpp",
	"clt", "cdc",
	"recurso especial", "recurso extraordinário", "habeas corpus",
	"mandado de segurança", "ação direta", "adi", "adpf", "adc",
	"súmula vinculante", "repercussão geral",
	"art.", "artigo", "inciso", "parágrafo", "alínea", "caput",
}

var usKeywords = []string{
	"supreme court", "circuit court", "district court", "court of appeals",
	"scotus", "federal court",
	"usc", "u.s.c.", "cfr", "c.f.r.", "united states code",
	"federal register", "public law", "stat.",
	"amendment", "bill of rights", "due process", "equal protection",
	"commerce clause", "first amendment", "fourth amendment",
	"fifth amendment", "fourteenth amendment",
	"stare decisis", "certiorari", "amicus curiae",
	"federal rules", "frcp", "fre",
}

var ukKeywords = []string{
	"house of lords", "house of commons", "privy council",
	"crown court", "high court", "court of appeal",
	"supreme court of the united kingdom",
	"statutory instrument", "act of parliament",
	"queen's bench", "king's bench", "chancery division",
	"common law", "equity", "tort",
	"uksc", "ewca", "ewhc",
}

var euKeywords = []string{
	"european court of justice", "ecj", "cjeu",
	"european court of human rights", "echr",
	"european commission", "european parliament",
	"court of justice of the european union",
	"eu regulation", "eu directive", "gdpr",
	"treaty of lisbon", "treaty of rome",
	"richtlinie", "verordnung", "règlement",
	"acquis communautaire", "subsidiarity",
	"preliminary ruling", "infringement procedure",
	"schengen",
}

var ptIndicators = []string{"de", "da", "do", "dos", "das", "que", "para", "com",
	"não", "uma", "por", "mais", "como", "pelo", "pela",
	"artigo", "lei", "tribunal", "recurso", "direito"}
var enIndicators = []string{"the", "of", "and", "to", "in", "for", "is", "that",
	"with", "by", "court", "law", "section", "shall"}
var deIndicators = []string{"der", "die", "das", "und", "von", "für", "mit",
	"ist", "nicht", "den", "ein", "eine", "gesetz", "recht"}
var frIndicators = []string{"le", "la", "les", "de", "du", "des", "un", "une",
	"est", "dans", "par", "pour", "loi", "droit", "tribunal"}

// detectLanguage runs the character-bigram-style word-count heuristic
// against the first 1000 chars of text (spec.md §4.D layer 1a).
func detectLanguage(text string) (string, float64) {
	if strings.TrimSpace(text) == "" {
		return "unknown", 0
	}
	sample := strings.ToLower(text)
	if len(sample) > 1000 {
		sample = sample[:1000]
	}
	padded := " " + sample + " "

	count := func(words []string) int {
		n := 0
		for _, w := range words {
			if strings.Contains(padded, " "+w+" ") {
				n++
			}
		}
		return n
	}

	counts := map[string]int{
		"pt": count(ptIndicators),
		"en": count(enIndicators),
		"de": count(deIndicators),
		"fr": count(frIndicators),
	}

	bestLang, bestCount, total := "unknown", 0, 0
	for _, lang := range []string{"pt", "en", "de", "fr"} { // deterministic order
		c := counts[lang]
		total += c
		if c > bestCount {
			bestCount, bestLang = c, lang
		}
	}
	if total == 0 {
		return "unknown", 0
	}
	confidence := float64(bestCount) / float64(total) * 1.5
	if confidence > 1.0 {
		confidence = 1.0
	}
	return bestLang, confidence
}

func keywordScore(textLower string, keywords []string) float64 {
	score := 0.0
	for _, kw := range keywords {
		if strings.Contains(textLower, kw) {
			score++
		}
	}
	return score
}

// detectJurisdictionHeuristic scores BR/US/UK/EU/GENERAL by keyword and
// regex hits, boosted by the detected language, per spec.md §4.D layer 1b.
func detectJurisdictionHeuristic(text, language string) (ragmodel.Jurisdiction, float64) {
	if text == "" {
		return ragmodel.JurisdictionGeneral, 0
	}
	sample := text
	if len(sample) > 3000 {
		sample = sample[:3000]
	}
	lower := strings.ToLower(sample)

	scores := map[ragmodel.Jurisdiction]float64{
		ragmodel.JurisdictionBR:      keywordScore(lower, brKeywords),
		ragmodel.JurisdictionUS:      keywordScore(lower, usKeywords),
		ragmodel.JurisdictionUK:      keywordScore(lower, ukKeywords),
		ragmodel.JurisdictionEU:      keywordScore(lower, euKeywords),
		ragmodel.JurisdictionGeneral: 0.1,
	}

	if cnjPattern.MatchString(text) {
		scores[ragmodel.JurisdictionBR] += 3
	}
	if uscPattern.MatchString(text) {
		scores[ragmodel.JurisdictionUS] += 3
	}
	if euRegPattern.MatchString(text) {
		scores[ragmodel.JurisdictionEU] += 3
	}

	switch language {
	case "pt":
		scores[ragmodel.JurisdictionBR] += 2
	case "en":
		scores[ragmodel.JurisdictionUS] += 0.5
		scores[ragmodel.JurisdictionUK] += 0.5
	case "de", "fr", "it", "es", "nl":
		scores[ragmodel.JurisdictionEU] += 1.5
	}

	order := []ragmodel.Jurisdiction{
		ragmodel.JurisdictionBR, ragmodel.JurisdictionUS, ragmodel.JurisdictionUK,
		ragmodel.JurisdictionEU, ragmodel.JurisdictionGeneral,
	}
	bestJuris, bestScore, total := ragmodel.JurisdictionGeneral, -1.0, 0.0
	for _, j := range order {
		s := scores[j]
		total += s
		if s > bestScore {
			bestScore, bestJuris = s, j
		}
	}
	if bestScore == 0 {
		return ragmodel.JurisdictionGeneral, 0.3
	}
	confidence := bestScore / total * 2.0
	if confidence > 1.0 {
		confidence = 1.0
	}

	if (bestJuris == ragmodel.JurisdictionUS || bestJuris == ragmodel.JurisdictionUK) &&
		scores[ragmodel.JurisdictionUS] > 0 && scores[ragmodel.JurisdictionUK] > 0 {
		diff := scores[ragmodel.JurisdictionUS] - scores[ragmodel.JurisdictionUK]
		if diff < 0 {
			diff = -diff
		}
		bigger := scores[ragmodel.JurisdictionUS]
		if scores[ragmodel.JurisdictionUK] > bigger {
			bigger = scores[ragmodel.JurisdictionUK]
		}
		if diff < bigger*0.3 {
			return ragmodel.JurisdictionINT, confidence * 0.9
		}
	}
	return bestJuris, confidence
}

var legislationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)art(?:igo)?\.?\s*\d+`),
	regexp.MustCompile(`§\s*\d+`),
	regexp.MustCompile(`(?i)lei\s+n`),
	regexp.MustCompile(`(?i)decreto\s+n`),
	regexp.MustCompile(`(?i)section\s+\d+`),
	regexp.MustCompile(`(?i)regulation\s*\(`),
}

var jurisprudencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)acórdão`),
	regexp.MustCompile(`(?i)ementa`),
	regexp.MustCompile(`(?i)voto\s+do\s+relator`),
	regexp.MustCompile(`(?i)tribunal`),
	regexp.MustCompile(`(?i)holding`),
	regexp.MustCompile(`(?i)opinion\s+of\s+the\s+court`),
	regexp.MustCompile(`(?i)dissenting\s+opinion`),
	regexp.MustCompile(`(?i)judgment`),
}

var contractPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)cláusula`),
	regexp.MustCompile(`(?i)contratante`),
	regexp.MustCompile(`(?i)contratad[oa]`),
	regexp.MustCompile(`(?i)clause`),
	regexp.MustCompile(`(?i)party\s+(?:a|b|of\s+the\s+first)`),
	regexp.MustCompile(`(?i)hereby\s+agrees`),
	regexp.MustCompile(`(?i)term\s+(?:of|and)\s+condition`),
}

var pleadingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)excelentíssimo`),
	regexp.MustCompile(`(?i)meritíssimo`),
	regexp.MustCompile(`(?i)requer(?:ente|ida)`),
	regexp.MustCompile(`(?i)plaintiff`),
	regexp.MustCompile(`(?i)defendant`),
	regexp.MustCompile(`(?i)motion\s+(?:to|for)`),
	regexp.MustCompile(`(?i)prayer\s+for\s+relief`),
}

func countMatches(text string, patterns []*regexp.Regexp) float64 {
	n := 0.0
	for _, p := range patterns {
		if p.MatchString(text) {
			n++
		}
	}
	return n
}

// detectDocumentType scores the five pattern groups of spec.md §4.D
// layer 1c over the first 2000 chars and returns the highest scorer.
func detectDocumentType(text string) ragmodel.DocumentType {
	sample := text
	if len(sample) > 2000 {
		sample = sample[:2000]
	}

	scores := map[ragmodel.DocumentType]float64{
		ragmodel.DocTypeLegislation:   countMatches(sample, legislationPatterns),
		ragmodel.DocTypeJurisprudence: countMatches(sample, jurisprudencePatterns),
		ragmodel.DocTypeContract:      countMatches(sample, contractPatterns),
		ragmodel.DocTypePleading:      countMatches(sample, pleadingPatterns),
		ragmodel.DocTypeGeneral:       0.5,
	}

	order := []ragmodel.DocumentType{
		ragmodel.DocTypeLegislation, ragmodel.DocTypeJurisprudence,
		ragmodel.DocTypeContract, ragmodel.DocTypePleading, ragmodel.DocTypeGeneral,
	}
	best, bestScore := ragmodel.DocTypeGeneral, -1.0
	for _, dt := range order {
		if scores[dt] > bestScore {
			bestScore, best = scores[dt], dt
		}
	}
	return best
}

// estimatedPages approximates page count at ~500 words/page.
func estimatedPages(text string) int {
	words := len(strings.Fields(text))
	pages := words / 500
	if pages < 1 {
		pages = 1
	}
	return pages
}

// heuristicDecision runs the full layer-1 heuristic and returns a
// RoutingDecision with method=heuristic whenever juris_conf/lang_conf
// clear the confidence threshold; callers check Confidence against
// their own threshold since layer 1 always runs (its output seeds
// layer 3's fallback too).
func heuristicDecision(text string) ragmodel.RoutingDecision {
	lang, langConf := detectLanguage(text)
	juris, jurisConf := detectJurisdictionHeuristic(text, lang)
	docType := detectDocumentType(text)
	confidence := 0.7*jurisConf + 0.3*langConf

	return ragmodel.RoutingDecision{
		Jurisdiction:   juris,
		DocumentType:   docType,
		Language:       lang,
		Confidence:     confidence,
		Method:         ragmodel.MethodHeuristic,
		Reason:         "heuristic keyword/regex/language scoring",
		EstimatedPages: estimatedPages(text),
	}
}
