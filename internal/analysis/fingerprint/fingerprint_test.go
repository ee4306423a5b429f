package fingerprint

import (
	"strings"
	"testing"

	"github.com/biasharahub/docintel/internal/core/domain"
)

func TestBuildDeterministic(t *testing.T) {
	text := "Invoice #INV-001\nTotal: KSh 5,000\nThank you"

	a := Build(text)
	b := Build(text)

	if a.Digest == "" {
		t.Fatal("digest is empty")
	}
	if !a.Equal(b) {
		t.Errorf("fingerprints of identical text differ: %s vs %s", a.Digest, b.Digest)
	}
}

func TestBuildStructuralFields(t *testing.T) {
	fp := Build("one two\ntwo three")

	if fp.LineCount != 2 {
		t.Errorf("line count = %d, want 2", fp.LineCount)
	}
	if fp.TotalChars != 17 {
		t.Errorf("total chars = %d, want 17", fp.TotalChars)
	}
	// "two" occurs twice and must lead; the rest follow first-seen order.
	want := []string{"two", "one", "three"}
	if len(fp.TopTokens) != len(want) {
		t.Fatalf("top tokens = %v, want %v", fp.TopTokens, want)
	}
	for i, token := range want {
		if fp.TopTokens[i] != token {
			t.Errorf("top token[%d] = %q, want %q", i, fp.TopTokens[i], token)
		}
	}
}

func TestBuildCapsTopTokens(t *testing.T) {
	words := make([]string, 0, 30)
	for _, r := range "abcdefghijklmnopqrstuvwxyz" {
		words = append(words, strings.Repeat(string(r), 3))
	}
	fp := Build(strings.Join(words, " "))

	if len(fp.TopTokens) != 20 {
		t.Errorf("top tokens = %d, want 20", len(fp.TopTokens))
	}
}

func TestBuildDistinguishesDifferentTexts(t *testing.T) {
	a := Build("alpha beta gamma")
	b := Build("alpha beta delta")

	if a.Equal(b) {
		t.Error("different texts produced equal fingerprints")
	}
}

func TestDetectDuplicateExactMatch(t *testing.T) {
	text := "Invoice #INV-001\nTotal: KSh 5,000"
	fp := Build(text)
	priors := []domain.PriorDocument{
		{DocumentID: "doc-a", Fingerprint: Build("something else entirely here")},
		{DocumentID: "doc-b", Fingerprint: Build(text)},
	}

	match := DetectDuplicate(fp, priors)
	if match.Score != 1.0 {
		t.Fatalf("score = %v, want 1.0", match.Score)
	}
	if match.DocumentID != "doc-b" {
		t.Errorf("matched document = %q, want doc-b", match.DocumentID)
	}
}

func TestDetectDuplicateNoPriors(t *testing.T) {
	match := DetectDuplicate(Build("anything"), nil)
	if match.Score != 0.0 || match.DocumentID != "" {
		t.Errorf("match = %+v, want zero value", match)
	}
}

func TestDetectDuplicateNearMissIsNotDuplicate(t *testing.T) {
	fp := Build("invoice total 5000 thanks")
	priors := []domain.PriorDocument{
		{DocumentID: "doc-a", Fingerprint: Build("invoice total 5000 thanks!")},
	}

	// One extra character shifts the length features; only exact signature
	// equality counts.
	if match := DetectDuplicate(fp, priors); match.Score != 0.0 {
		t.Errorf("score = %v, want 0.0", match.Score)
	}
}
