// Package fingerprint builds stable content signatures and performs
// exact-match duplicate detection over them.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/biasharahub/docintel/internal/core/domain"
)

const topTokenCount = 20

var punctuationRE = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// Build normalizes the text, takes the 20 most frequent tokens (ties broken
// by first occurrence), and hashes them together with line count, mean line
// length, and total character length. Fingerprint equality is a pure value
// comparison.
func Build(text string) domain.Fingerprint {
	lines := strings.Split(text, "\n")
	totalChars := len(text)
	avgLineLength := 0.0
	if len(lines) > 0 {
		sum := 0
		for _, line := range lines {
			sum += len(line)
		}
		avgLineLength = float64(sum) / float64(len(lines))
	}

	normalized := punctuationRE.ReplaceAllString(strings.ToLower(text), " ")
	tokens := strings.Fields(normalized)

	counts := make(map[string]int, len(tokens))
	firstSeen := make(map[string]int, len(tokens))
	order := make([]string, 0, len(tokens))
	for i, token := range tokens {
		if _, ok := counts[token]; !ok {
			firstSeen[token] = i
			order = append(order, token)
		}
		counts[token]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})
	if len(order) > topTokenCount {
		order = order[:topTokenCount]
	}

	fp := domain.Fingerprint{
		TopTokens:     order,
		LineCount:     len(lines),
		AvgLineLength: avgLineLength,
		TotalChars:    totalChars,
	}
	fp.Digest = digest(fp)
	return fp
}

func digest(fp domain.Fingerprint) string {
	canonical := fmt.Sprintf("%s|%d|%.4f|%d",
		strings.Join(fp.TopTokens, ","), fp.LineCount, fp.AvgLineLength, fp.TotalChars)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// Match is the outcome of a duplicate check: score 1.0 with the matched
// prior document id on an exact fingerprint match, 0.0 otherwise.
type Match struct {
	Score      float64
	DocumentID string
}

// DetectDuplicate compares a fingerprint against prior documents. It is an
// equality test expressed as a similarity score; no near-duplicate matching
// is attempted. With no priors it reports 0.0 and no match.
func DetectDuplicate(fp domain.Fingerprint, priors []domain.PriorDocument) Match {
	for _, prior := range priors {
		if fp.Equal(prior.Fingerprint) {
			return Match{Score: 1.0, DocumentID: prior.DocumentID}
		}
	}
	return Match{}
}
