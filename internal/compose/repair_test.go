package compose

import (
	"regexp"
	"strings"
	"testing"
)

var psLine = regexp.MustCompile(`(?m)^P\.S\.:`)

func countPS(s string) int { return len(psLine.FindAllString(s, -1)) }

func TestEnsurePostscriptAppendsWhenAbsent(t *testing.T) {
	out := EnsurePostscript("Donation appeal body.", "")
	if countPS(out) != 1 {
		t.Fatalf("expected exactly one P.S. line, got %d in %q", countPS(out), out)
	}
	if !strings.Contains(out, FallbackPostscript) {
		t.Fatalf("expected fallback postscript, got %q", out)
	}
}

func TestEnsurePostscriptUsesGeneratorPS(t *testing.T) {
	out := EnsurePostscript("Body.", "Reply by Friday to double your impact.")
	if countPS(out) != 1 {
		t.Fatalf("expected one P.S. line, got %q", out)
	}
	if !strings.Contains(out, "P.S.: Reply by Friday to double your impact.") {
		t.Fatalf("generator ps not used: %q", out)
	}
}

func TestEnsurePostscriptStripsSuppliedPrefix(t *testing.T) {
	out := EnsurePostscript("Body.", "P.S. Reply by Friday.")
	if strings.Contains(out, "P.S.: P.S.") {
		t.Fatalf("double prefix: %q", out)
	}
	if countPS(out) != 1 {
		t.Fatalf("expected one P.S. line, got %q", out)
	}
}

func TestEnsurePostscriptKeepsOnlyFirst(t *testing.T) {
	body := "Opening.\nP.S.: First note.\nMiddle.\nP.S. Second note.\nps: third"
	out := EnsurePostscript(body, "ignored")
	if countPS(out) != 1 {
		t.Fatalf("expected one P.S. line, got %d in %q", countPS(out), out)
	}
	if !strings.Contains(out, "P.S.: First note.") {
		t.Fatalf("first postscript should win: %q", out)
	}
	if strings.Contains(out, "Second note") || strings.Contains(out, "third") {
		t.Fatalf("later postscripts should be dropped: %q", out)
	}
}

func TestEnsurePostscriptNormalizesVariantPrefix(t *testing.T) {
	out := EnsurePostscript("Body.\nPS: call us today.", "")
	if countPS(out) != 1 {
		t.Fatalf("variant prefix not normalized: %q", out)
	}
}

func TestNormalizeSubjectsTruncates(t *testing.T) {
	got := NormalizeSubjects([]string{"a", "b", "c", "d", "e"})
	if len(got) != SubjectCount {
		t.Fatalf("expected %d subjects, got %v", SubjectCount, got)
	}
	if got[0] != "a" || got[2] != "c" {
		t.Fatalf("unexpected truncation: %v", got)
	}
}

func TestNormalizeSubjectsPads(t *testing.T) {
	got := NormalizeSubjects([]string{"only one"})
	if len(got) != SubjectCount {
		t.Fatalf("expected %d subjects, got %v", SubjectCount, got)
	}
	if got[0] != "only one" {
		t.Fatalf("supplied subject lost: %v", got)
	}
	// Padding is deterministic.
	again := NormalizeSubjects([]string{"only one"})
	for i := range got {
		if got[i] != again[i] {
			t.Fatalf("padding not deterministic: %v vs %v", got, again)
		}
	}
}

func TestNormalizeSubjectsEmptyStaysEmpty(t *testing.T) {
	if got := NormalizeSubjects(nil); got != nil {
		t.Fatalf("expected nil for missing subjects, got %v", got)
	}
	if got := NormalizeSubjects([]string{" ", ""}); got != nil {
		t.Fatalf("expected nil for blank subjects, got %v", got)
	}
}
