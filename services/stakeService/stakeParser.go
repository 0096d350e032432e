package stakeService

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/shopspring/decimal"
)

const (
	errEmptyInput       = "Input is empty"
	errNoParticipants   = "No valid participants found"
	errDuplicateNames   = "Duplicate participant names found"
	errStakeNotPositive = "Stake for %s must be greater than zero"
)

var equalSplitPhrases = []string{
	"split this equally",
	"split this evenly",
	"split equally",
	"split evenly",
	"equal split",
	"even split",
}

var (
	fillerWords   = regexp.MustCompile(`(?i)\b(and|with|for)\b`)
	pairPattern   = regexp.MustCompile(`([A-Za-z]+(?:\s+[A-Za-z]+)*)\s+(\$?\d+(?:\.\d{1,2})?)`)
	phrasePattern = buildPhrasePattern()
)

type Participant struct {
	Name  string          `json:"name"`
	Stake decimal.Decimal `json:"stake"`
}

type Result struct {
	Participants []Participant `json:"participants"`
	Errors       []string      `json:"errors"`
	IsEqualSplit bool          `json:"is_equal_split"`
}

// Valid reports whether the input produced participants without any errors.
func (r Result) Valid() bool {
	return len(r.Errors) == 0 && len(r.Participants) > 0
}

func (r Result) Stakes() []decimal.Decimal {
	stakes := make([]decimal.Decimal, 0, len(r.Participants))
	for _, p := range r.Participants {
		stakes = append(stakes, p.Stake)
	}
	return stakes
}

// Parse turns free text such as "Sam: 50, Alex: 30", "Greg 50 Shyam 100" or
// "Sam, Alex and Jordan split equally" into participant stakes. Errors are
// collected rather than returned early so the caller can show all of them.
func Parse(text string, totalRisk *decimal.Decimal) Result {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Result{Participants: []Participant{}, Errors: []string{errEmptyInput}}
	}

	result := Result{Errors: []string{}}
	if isEqualSplit(trimmed) {
		result.IsEqualSplit = true
		result.Participants = parseEqualSplit(trimmed)
		if totalRisk != nil && len(result.Participants) > 0 {
			share := totalRisk.Div(decimal.NewFromInt(int64(len(result.Participants))))
			for i := range result.Participants {
				result.Participants[i].Stake = share
			}
		}
	} else {
		result.Participants = parseCustomAmounts(trimmed)
	}
	if result.Participants == nil {
		result.Participants = []Participant{}
	}

	if len(result.Participants) == 0 {
		result.Errors = append(result.Errors, errNoParticipants)
	}

	seen := make(map[string]struct{}, len(result.Participants))
	duplicate := false
	for _, p := range result.Participants {
		if _, ok := seen[p.Name]; ok {
			duplicate = true
		}
		seen[p.Name] = struct{}{}
	}
	if duplicate {
		result.Errors = append(result.Errors, errDuplicateNames)
	}

	if !result.IsEqualSplit {
		for _, p := range result.Participants {
			if !p.Stake.IsPositive() {
				result.Errors = append(result.Errors, fmt.Sprintf(errStakeNotPositive, p.Name))
			}
		}
		if totalRisk != nil && len(result.Participants) > 0 {
			total := common.SumStakes(result.Stakes())
			if !common.StakesMatchRisk(result.Stakes(), *totalRisk) {
				result.Errors = append(result.Errors, fmt.Sprintf("Stakes total %s but should equal %s",
					common.FormatMoney(total), common.FormatMoney(*totalRisk)))
			}
		}
	}

	return result
}

// ValidateStakes reports whether the participants' stakes add up to risk
// within one cent.
func ValidateStakes(participants []Participant, risk decimal.Decimal) bool {
	stakes := make([]decimal.Decimal, 0, len(participants))
	for _, p := range participants {
		stakes = append(stakes, p.Stake)
	}
	return common.StakesMatchRisk(stakes, risk)
}

func isEqualSplit(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range equalSplitPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func buildPhrasePattern() *regexp.Regexp {
	quoted := make([]string, 0, len(equalSplitPhrases))
	for _, phrase := range equalSplitPhrases {
		quoted = append(quoted, regexp.QuoteMeta(phrase))
	}
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
}

func parseEqualSplit(text string) []Participant {
	cleaned := phrasePattern.ReplaceAllString(text, "")

	var participants []Participant
	for _, segment := range strings.Split(cleaned, ",") {
		for _, part := range strings.Split(strings.TrimSpace(segment), " and ") {
			name := extractName(part)
			if name != "" {
				participants = append(participants, Participant{Name: name, Stake: decimal.Zero})
			}
		}
	}
	return participants
}

func extractName(text string) string {
	name := fillerWords.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(name), " ")
}

func parseCustomAmounts(text string) []Participant {
	if !strings.Contains(text, ",") {
		return parseSpaceSeparated(text)
	}

	var participants []Participant
	for _, segment := range strings.Split(text, ",") {
		if p, ok := parseNamedAmount(strings.TrimSpace(segment)); ok {
			participants = append(participants, p)
		}
	}
	return participants
}

// parseNamedAmount handles "Name: 50" and "Name 50". The trailing form is
// scanned from the last word backwards so multi-word names survive.
func parseNamedAmount(segment string) (Participant, bool) {
	if name, rest, found := strings.Cut(segment, ":"); found {
		if amount, ok := extractAmount(rest); ok {
			return Participant{Name: strings.TrimSpace(name), Stake: amount}, true
		}
	}

	words := strings.Fields(segment)
	for i := len(words) - 1; i >= 1; i-- {
		if amount, ok := extractAmount(words[i]); ok {
			return Participant{Name: strings.Join(words[:i], " "), Stake: amount}, true
		}
	}
	return Participant{}, false
}

func parseSpaceSeparated(text string) []Participant {
	var participants []Participant
	for _, m := range pairPattern.FindAllStringSubmatch(text, -1) {
		if amount, ok := extractAmount(m[2]); ok {
			participants = append(participants, Participant{Name: strings.TrimSpace(m[1]), Stake: amount})
		}
	}
	if len(participants) > 0 {
		return participants
	}
	return scanWords(text)
}

// scanWords collects name words until an amount appears, then emits a pair.
func scanWords(text string) []Participant {
	words := strings.Fields(text)

	var participants []Participant
	var name []string
	for _, word := range words {
		amount, ok := extractAmount(word)
		if !ok {
			name = append(name, word)
			continue
		}
		if len(name) > 0 {
			participants = append(participants, Participant{
				Name:  strings.TrimSuffix(strings.Join(name, " "), ":"),
				Stake: amount,
			})
		}
		name = nil
	}
	return participants
}

func extractAmount(text string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}
