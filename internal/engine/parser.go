package engine

import (
	"regexp"
	"strconv"
	"strings"
)

// RawResponse is the wire shape submitted by the caller: either a fully
// structured record or a free-text blob (all fields but Text empty).
type RawResponse struct {
	// structured fields
	Choice         string
	ForcedChoice   string
	Permissibility interface{}
	Confidence     interface{}
	Principles     []string
	Rationale      string
	InfoNeeded     []string

	// free-text fallback; when Choice is empty and Text is non-empty the
	// free-text path runs instead of the structured path.
	Text string
}

// ParseResult is C1's output contract.
type ParseResult struct {
	Valid     bool
	Data      *Response
	Errors    []string
	Warnings  []string
	Inferred  []string // field names the free-text heuristics inferred
}

const maxRationaleChars = 200
const maxPrinciples = 3
const maxInfoNeeded = 5

// Parse normalizes a raw agent submission into a canonical Response,
// following either the structured or free-text path. It never panics and
// always returns a ParseResult; hard failures surface as Valid=false with
// Errors populated.
func Parse(raw RawResponse, item *DilemmaItem) ParseResult {
	if raw.Choice == "" && raw.Text != "" {
		return parseFreeText(raw.Text, item)
	}
	return parseStructured(raw)
}

func parseStructured(raw RawResponse) ParseResult {
	res := ParseResult{Data: &Response{}}

	choice := Choice(strings.ToUpper(strings.TrimSpace(raw.Choice)))
	switch choice {
	case ChoiceA, ChoiceB, ChoiceC, ChoiceD:
		res.Data.Choice = choice
	case "":
		res.Errors = append(res.Errors, "missing_choice")
	default:
		res.Errors = append(res.Errors, "invalid_choice")
	}

	forced := ForcedChoice(strings.ToUpper(strings.TrimSpace(raw.ForcedChoice)))
	switch forced {
	case ForcedA, ForcedB:
		res.Data.ForcedChoice = forced
	case "":
		res.Data.ForcedChoice = deriveForcedChoice(res.Data.Choice)
	default:
		res.Errors = append(res.Errors, "invalid_choice")
	}

	perm, ok := coerceIntInRange(raw.Permissibility, 0, 100)
	if !ok {
		res.Errors = append(res.Errors, "invalid_range")
	} else {
		res.Data.Permissibility = perm
	}

	conf, ok := coerceIntInRange(raw.Confidence, 0, 100)
	if !ok {
		res.Errors = append(res.Errors, "invalid_range")
	} else {
		res.Data.Confidence = conf
	}

	principles := make([]Principle, 0, maxPrinciples)
	for i, p := range raw.Principles {
		if len(principles) >= maxPrinciples {
			res.Warnings = append(res.Warnings, "principles_truncated")
			break
		}
		pp := Principle(strings.ToLower(strings.TrimSpace(p)))
		if isKnownPrinciple(pp) {
			principles = append(principles, pp)
		} else {
			res.Warnings = append(res.Warnings, "unknown_principle_dropped:"+p)
		}
		_ = i
	}
	res.Data.Principles = principles

	rationale := raw.Rationale
	if len(rationale) > maxRationaleChars {
		rationale = rationale[:maxRationaleChars]
		res.Warnings = append(res.Warnings, "rationale_truncated")
	}
	res.Data.Rationale = rationale

	infoNeeded := raw.InfoNeeded
	if len(infoNeeded) > maxInfoNeeded {
		res.Warnings = append(res.Warnings, "info_needed_truncated")
		infoNeeded = infoNeeded[:maxInfoNeeded]
	}
	res.Data.InfoNeeded = infoNeeded

	res.Valid = len(res.Errors) == 0
	if !res.Valid {
		res.Data = nil
	}
	return res
}

func deriveForcedChoice(c Choice) ForcedChoice {
	switch c {
	case ChoiceA, ChoiceC:
		return ForcedA
	case ChoiceB, ChoiceD:
		return ForcedB
	default:
		return ""
	}
}

func coerceIntInRange(v interface{}, lo, hi int) (int, bool) {
	var n int
	switch t := v.(type) {
	case nil:
		return 0, false
	case int:
		n = t
	case int64:
		n = int(t)
	case float64:
		n = int(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		n = int(parsed)
	default:
		return 0, false
	}
	if n < lo || n > hi {
		return 0, false
	}
	return n, true
}

func isKnownPrinciple(p Principle) bool {
	for _, k := range AllPrinciples {
		if k == p {
			return true
		}
	}
	return false
}

// --- free-text path -------------------------------------------------------

var (
	choosePattern    = regexp.MustCompile(`(?i)\b(choose|select|pick|option)\s+([ABCD])\b`)
	isBestPattern    = regexp.MustCompile(`(?i)\b([ABCD])\s+is\s+the\s+best\b`)
	permissionWords  = []string{"permissible", "allowed", "acceptable", "justified", "okay", "fine", "right thing", "should"}
	prohibitionWords = []string{"wrong", "impermissible", "forbidden", "unacceptable", "unjustified", "should not", "shouldn't", "never"}
	certaintyWords   = []string{"certain", "confident", "clearly", "definitely", "sure", "obviously"}
	uncertaintyWords = []string{"uncertain", "unsure", "maybe", "perhaps", "not sure", "depends", "ambiguous"}

	principleKeywords = map[Principle][]string{
		PrincipleConsequentialist: {"consequence", "outcome", "utilitarian", "greatest good", "net benefit"},
		PrincipleDeontological:    {"duty", "rule", "right", "obligation", "deontolog", "categorical"},
		PrincipleVirtue:           {"virtue", "character", "integrity", "courage", "honesty as a trait"},
		PrincipleContractualist:   {"contract", "agreement", "consent", "fairness", "social contract"},
		PrincipleCare:             {"care", "relationship", "compassion", "empathy", "nurtur"},
		PrinciplePragmatic:        {"practical", "pragmatic", "workable", "realistic", "feasib"},
	}

	infoNeedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)need(?:s|ed)?\s+to\s+know\s+([^.?!]+)`),
		regexp.MustCompile(`(?i)\b(what|who|when|where|why|how)\b[^.?!]*\?`),
		regexp.MustCompile(`(?i)more\s+information\s+about\s+([^.?!]+)`),
	}
)

func parseFreeText(text string, item *DilemmaItem) ParseResult {
	res := ParseResult{Data: &Response{}}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		res.Errors = append(res.Errors, "not_a_string")
		return res
	}
	lower := strings.ToLower(trimmed)

	choice, inferredChoice := inferChoice(lower, item)
	if choice == "" {
		res.Errors = append(res.Errors, "missing_choice")
		return res
	}
	res.Data.Choice = choice
	res.Data.ForcedChoice = deriveForcedChoice(choice)
	if inferredChoice {
		res.Warnings = append(res.Warnings, "choice_inferred")
		res.Inferred = append(res.Inferred, "choice")
	}

	permWords := countAny(lower, permissionWords)
	prohWords := countAny(lower, prohibitionWords)
	perm := 50 + 15*(permWords-prohWords)
	res.Data.Permissibility = clampInt(perm, 0, 100)
	res.Warnings = append(res.Warnings, "permissibility_inferred")
	res.Inferred = append(res.Inferred, "permissibility")

	certWords := countAny(lower, certaintyWords)
	uncertWords := countAny(lower, uncertaintyWords)
	conf := 70 + 10*certWords - 15*uncertWords
	res.Data.Confidence = clampInt(conf, 10, 100)
	res.Warnings = append(res.Warnings, "confidence_inferred")
	res.Inferred = append(res.Inferred, "confidence")

	var principles []Principle
	for _, p := range AllPrinciples {
		for _, kw := range principleKeywords[p] {
			if strings.Contains(lower, kw) {
				principles = append(principles, p)
				break
			}
		}
		if len(principles) >= maxPrinciples {
			break
		}
	}
	if len(principles) > 0 {
		res.Data.Principles = principles
		res.Warnings = append(res.Warnings, "principles_inferred")
		res.Inferred = append(res.Inferred, "principles")
	}

	var infoNeeded []string
	for _, re := range infoNeedPatterns {
		for _, m := range re.FindAllString(trimmed, -1) {
			if len(infoNeeded) >= maxInfoNeeded {
				break
			}
			infoNeeded = append(infoNeeded, strings.TrimSpace(m))
		}
	}
	if len(infoNeeded) > 0 {
		res.Data.InfoNeeded = infoNeeded
		res.Warnings = append(res.Warnings, "info_needed_inferred")
		res.Inferred = append(res.Inferred, "info_needed")
	}

	rationale := trimmed
	if len(rationale) > maxRationaleChars {
		rationale = rationale[:maxRationaleChars]
	}
	res.Data.Rationale = rationale

	res.Valid = true
	return res
}

func inferChoice(lower string, item *DilemmaItem) (Choice, bool) {
	if m := choosePattern.FindStringSubmatch(lower); m != nil {
		return Choice(strings.ToUpper(m[2])), true
	}
	if m := isBestPattern.FindStringSubmatch(lower); m != nil {
		return Choice(strings.ToUpper(m[1])), true
	}

	if item != nil {
		best := Choice("")
		bestCount := 0
		for _, opt := range item.Options {
			label := strings.ToLower(opt.Label)
			words := strings.Fields(label)
			count := 0
			for _, w := range words {
				if len(w) > 4 && strings.Contains(lower, w) {
					count++
				}
			}
			if count >= 2 && count > bestCount {
				best = opt.Choice
				bestCount = count
			}
		}
		if best != "" {
			return best, true
		}
	}

	switch {
	case strings.Contains(lower, "prohibit") || strings.Contains(lower, "forbid"):
		return ChoiceA, true
	case strings.Contains(lower, "oblig") || strings.Contains(lower, "must"):
		return ChoiceB, true
	case strings.Contains(lower, "more information") || strings.Contains(lower, "depends"):
		return ChoiceC, true
	case strings.Contains(lower, "alternative"):
		return ChoiceD, true
	}

	return "", false
}

func countAny(text string, words []string) int {
	n := 0
	for _, w := range words {
		n += strings.Count(text, w)
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
