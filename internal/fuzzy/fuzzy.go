// Package fuzzy ranks documents against a free-text query using weighted
// fields and edit-distance token similarity.
//
// An Index is immutable once built and safe for concurrent searches.
package fuzzy

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Scoring parameters.
const (
	// TokenThreshold is the lowest token similarity that counts as a match.
	TokenThreshold = 0.7
	// MinScore is the lowest document score returned by Search.
	MinScore = 0.25
	// prefixScore is awarded when a query token of at least prefixMinLen
	// runes starts a document token.
	prefixScore  = 0.9
	prefixMinLen = 3
)

// Field names a searchable key and its weight in (0, 1].
type Field struct {
	Name   string
	Weight float64
}

// Match is a ranked search hit. Index refers to the document position
// passed to New.
type Match struct {
	Index int
	Score float64
}

// Index holds tokenized documents for a fixed set of fields.
type Index struct {
	fields []Field
	docs   [][][]string // docs[doc][field] tokens
}

// New tokenizes docs. Each document is a slice of field values in the same
// order as fields; missing trailing values are treated as empty.
func New(fields []Field, docs [][]string) *Index {
	ix := &Index{
		fields: append([]Field(nil), fields...),
		docs:   make([][][]string, len(docs)),
	}
	for i, doc := range docs {
		toks := make([][]string, len(fields))
		for j := range fields {
			if j < len(doc) {
				toks[j] = Tokenize(doc[j])
			}
		}
		ix.docs[i] = toks
	}
	return ix
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.docs)
}

// Search returns up to limit matches ordered by descending score. Equal
// scores keep document order. A blank query or a non-positive limit
// returns nil.
func (ix *Index) Search(query string, limit int) []Match {
	if ix == nil || limit <= 0 {
		return nil
	}
	qtoks := Tokenize(query)
	if len(qtoks) == 0 {
		return nil
	}

	var matches []Match
	for i, doc := range ix.docs {
		best := 0.0
		for j, f := range ix.fields {
			s := f.Weight * fieldScore(qtoks, doc[j])
			if s > best {
				best = s
			}
		}
		if best >= MinScore {
			matches = append(matches, Match{Index: i, Score: best})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// fieldScore is the mean over query tokens of the best similarity against
// any field token.
func fieldScore(qtoks, ftoks []string) float64 {
	if len(ftoks) == 0 {
		return 0
	}
	total := 0.0
	for _, q := range qtoks {
		best := 0.0
		for _, f := range ftoks {
			if s := Similarity(q, f); s > best {
				best = s
				if best == 1 {
					break
				}
			}
		}
		if best >= TokenThreshold {
			total += best
		}
	}
	return total / float64(len(qtoks))
}

// Similarity scores two lower-case tokens in [0, 1]: one minus the edit
// distance over the longer length, raised to a fixed score when q is a
// prefix of target.
func Similarity(q, target string) float64 {
	if q == target {
		return 1
	}
	qlen := utf8.RuneCountInString(q)
	tlen := utf8.RuneCountInString(target)
	longest := max(qlen, tlen)
	if longest == 0 {
		return 0
	}
	s := 1 - float64(levenshtein.ComputeDistance(q, target))/float64(longest)
	if qlen >= prefixMinLen && strings.HasPrefix(target, q) && s < prefixScore {
		s = prefixScore
	}
	return s
}

// Tokenize lower-cases s and splits it on anything that is not a letter or
// digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
