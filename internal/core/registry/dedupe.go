package registry

import (
	"strings"
	"unicode"

	"github.com/modhearth/modhearth/internal/core"
)

// nameOverlapThreshold marks two mods as duplicates when the overlap of
// their significant name words exceeds it, even under different ids.
// The upstream catalog lists near-duplicate entries ("Awesome
// Teleporter" vs "Awesome Teleporters") that would otherwise both
// surface.
const nameOverlapThreshold = 0.8

// DeduplicateMods removes entries with a duplicate id or a
// near-duplicate name, keeping the first occurrence.
func DeduplicateMods(mods []core.Mod) []core.Mod {
	kept := make([]core.Mod, 0, len(mods))
	seenIDs := make(map[int64]struct{}, len(mods))
	keptWords := make([][]string, 0, len(mods))

	for _, mod := range mods {
		if _, ok := seenIDs[mod.ID]; ok {
			continue
		}

		words := significantWords(mod.Name)
		duplicate := false
		for _, existing := range keptWords {
			if nameOverlap(words, existing) > nameOverlapThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		seenIDs[mod.ID] = struct{}{}
		keptWords = append(keptWords, words)
		kept = append(kept, mod)
	}

	return kept
}

// significantWords normalizes a name and keeps words longer than two
// characters. Trailing plural "s" is trimmed so singular and plural
// forms compare equal.
func significantWords(name string) []string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte(' ')
		}
	}

	words := make([]string, 0, 4)
	for _, word := range strings.Fields(sb.String()) {
		if len(word) <= 2 {
			continue
		}
		if len(word) > 3 && strings.HasSuffix(word, "s") {
			word = word[:len(word)-1]
		}
		words = append(words, word)
	}
	return words
}

// nameOverlap computes the Jaccard overlap of two word sets.
func nameOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, word := range a {
		set[word] = struct{}{}
	}

	intersection := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, word := range b {
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		if _, ok := set[word]; ok {
			intersection++
		} else {
			union++
		}
	}

	return float64(intersection) / float64(union)
}
