package compose

import (
	"regexp"
	"strings"
)

// FallbackPostscript is appended when neither the draft body nor the
// generator's structured output carried a postscript. Fixed text keeps
// repeated invocations deterministic.
const FallbackPostscript = "Your gift this season keeps recovery moving for our neighbors in Western North Carolina."

var (
	psLineRe   = regexp.MustCompile(`(?i)^\s*p\.?\s*s\.?\s*[:.]\s*(.*)$`)
	psPrefixRe = regexp.MustCompile(`(?i)^\s*p\.?\s*s\.?\s*[:.]?\s*`)
)

// EnsurePostscript makes the body carry exactly one line beginning "P.S.:".
// The first postscript already present in the body wins and later ones are
// dropped; otherwise the generator-supplied ps (without prefix) is appended;
// otherwise the fallback. The kept line is normalized to the "P.S.:" form.
func EnsurePostscript(body, ps string) string {
	lines := strings.Split(body, "\n")
	kept := lines[:0]
	found := false
	for _, line := range lines {
		m := psLineRe.FindStringSubmatch(line)
		if m == nil {
			kept = append(kept, line)
			continue
		}
		if found {
			continue
		}
		found = true
		kept = append(kept, "P.S.: "+strings.TrimSpace(m[1]))
	}
	out := strings.TrimSpace(strings.Join(kept, "\n"))
	if found {
		return out
	}
	tail := strings.TrimSpace(psPrefixRe.ReplaceAllString(ps, ""))
	if tail == "" {
		tail = FallbackPostscript
	}
	if out == "" {
		return "P.S.: " + tail
	}
	return out + "\n\nP.S.: " + tail
}

// SubjectCount is the number of subject lines an email response carries
// whenever the typed view is present.
const SubjectCount = 3

var subjectFallbacks = [SubjectCount]string{
	"Help our neighbors rebuild",
	"Recovery is local - and it needs you",
	"Your support, put to work this month",
}

// NormalizeSubjects forces a generator-supplied subject list to exactly
// three entries, truncating extras and padding gaps from a fixed fallback
// list. An empty input returns nil so the typed field can be omitted.
func NormalizeSubjects(subjects []string) []string {
	cleaned := make([]string, 0, SubjectCount)
	for _, s := range subjects {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		cleaned = append(cleaned, s)
		if len(cleaned) == SubjectCount {
			break
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	for i := len(cleaned); i < SubjectCount; i++ {
		cleaned = append(cleaned, subjectFallbacks[i])
	}
	return cleaned
}
