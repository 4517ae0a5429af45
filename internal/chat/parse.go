package chat

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"pokechat/internal/textutil"
)

// Message is one turn of a ChatGPT-style conversation payload.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request accepts either a bare question or a messages array; with both,
// the last user message wins.
type Request struct {
	Question string    `json:"question"`
	Messages []Message `json:"messages"`
}

// question resolves the effective question text.
func (r Request) question() string {
	question := strings.TrimSpace(r.Question)
	for _, m := range r.Messages {
		if m.Role == "user" && strings.TrimSpace(m.Content) != "" {
			question = strings.TrimSpace(m.Content)
		}
	}
	return question
}

// listTriggers mark a question as a listing request when present as words.
var listTriggers = map[string]struct{}{
	"list": {}, "show": {}, "give": {}, "some": {}, "few": {}, "suggest": {}, "find": {},
}

// canonicalTypes is the fixed scan order for type detection, so questions
// naming several types resolve deterministically.
var canonicalTypes = []string{
	"normal", "fire", "water", "grass", "electric", "ice", "fighting",
	"poison", "ground", "flying", "psychic", "bug", "rock", "ghost",
	"dragon", "dark", "steel", "fairy",
}

// stopwords are filler tokens that never name a resource.
var stopwords = map[string]struct{}{
	"what": {}, "is": {}, "are": {}, "the": {}, "of": {}, "a": {}, "an": {},
	"tell": {}, "me": {}, "about": {}, "info": {}, "on": {}, "please": {},
	"pokemon": {}, "pokemons": {}, "pokedex": {},
	"type": {}, "types": {}, "ability": {}, "abilities": {},
	"move": {}, "moves": {}, "attack": {}, "attacks": {},
	"stat": {}, "stats": {}, "describe": {},
	"show": {}, "list": {}, "give": {}, "some": {}, "few": {}, "suggest": {}, "find": {},
	"and": {}, "or": {}, "to": {}, "for": {}, "with": {},
	"how": {}, "many": {}, "much": {}, "does": {}, "do": {}, "can": {}, "you": {},
	"it": {}, "its": {}, "their": {}, "his": {}, "her": {},
	"who": {}, "which": {}, "where": {}, "when": {}, "why": {},
	"that": {}, "this": {}, "these": {}, "those": {},
}

var countPattern = regexp.MustCompile(`\b(\d{1,3})\b`)

// tokenize lowercases the question and splits it into words, keeping
// letters, digits, and hyphens.
func tokenize(question string) []string {
	normalized := textutil.Normalize(question)
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return ' '
		}
	}, normalized)
	return strings.Fields(cleaned)
}

func tokenSet(question string) map[string]struct{} {
	tokens := tokenize(question)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// isListRequest reports whether the question asks for a listing.
func isListRequest(question string) bool {
	for token := range tokenSet(question) {
		if _, ok := listTriggers[token]; ok {
			return true
		}
	}
	return false
}

// extractCount pulls the first small integer out of the question, clamped
// to [1, maxCount]. Questions without one get the default.
func extractCount(question string, defaultCount, maxCount int) int {
	m := countPattern.FindStringSubmatch(textutil.Normalize(question))
	if m == nil {
		return defaultCount
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return defaultCount
	}
	if n > maxCount {
		return maxCount
	}
	return n
}

// extractTypeName returns the first canonical elemental type the question
// names, or "".
func extractTypeName(question string) string {
	tokens := tokenSet(question)
	for _, name := range canonicalTypes {
		if _, ok := tokens[name]; ok {
			return name
		}
	}
	return ""
}

// extractCandidates turns the question into lookup candidates: stopwords
// and bare numbers are dropped, adjacent survivors are also offered as a
// hyphen-joined pair (multi-word names like "mr mime"), and the result is
// ordered most specific first.
func extractCandidates(question string) []string {
	tokens := tokenize(question)
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, stop := stopwords[t]; stop {
			continue
		}
		if isDigits(t) {
			continue
		}
		kept = append(kept, t)
	}

	seen := make(map[string]struct{}, len(kept)*2)
	candidates := make([]string, 0, len(kept)*2)
	add := func(c string) {
		if _, dup := seen[c]; !dup {
			seen[c] = struct{}{}
			candidates = append(candidates, c)
		}
	}
	for _, t := range kept {
		add(t)
	}
	for i := 0; i+1 < len(kept); i++ {
		add(kept[i] + "-" + kept[i+1])
	}

	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) > len(candidates[j])
		}
		return candidates[i] < candidates[j]
	})
	return candidates
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Resource kinds, in default lookup order.
const (
	kindPokemon = "pokemon"
	kindType    = "type"
	kindAbility = "ability"
	kindMove    = "move"
)

// resourcePriority orders the resource kinds to try: kinds the question
// names explicitly come first, then the default pokemon-first order.
func resourcePriority(question string) []string {
	tokens := tokenSet(question)
	has := func(words ...string) bool {
		for _, w := range words {
			if _, ok := tokens[w]; ok {
				return true
			}
		}
		return false
	}

	order := make([]string, 0, 4)
	if has("type", "types") {
		order = append(order, kindType)
	}
	if has("ability", "abilities") {
		order = append(order, kindAbility)
	}
	if has("move", "moves", "attack", "attacks") {
		order = append(order, kindMove)
	}
	for _, kind := range []string{kindPokemon, kindType, kindAbility, kindMove} {
		duplicate := false
		for _, existing := range order {
			if existing == kind {
				duplicate = true
				break
			}
		}
		if !duplicate {
			order = append(order, kind)
		}
	}
	return order
}
