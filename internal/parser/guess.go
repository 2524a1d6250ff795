// Package parser extracts multiple-choice answers from free-text model output.
package parser

import (
	"regexp"
	"strings"
)

// Rule names the pattern that produced a guess.
type Rule string

const (
	RuleAnswerIs        Rule = "answer_is"
	RuleSpeakerIsSaying Rule = "speaker_is_saying"
	RuleLeadingLetter   Rule = "leading_letter"
)

type pattern struct {
	rule Rule
	re   *regexp.Regexp
}

// Order matters: the leading-letter pattern also matches responses the
// speaker pattern would claim, and the earlier rule wins.
var patterns = []pattern{
	{rule: RuleAnswerIs, re: regexp.MustCompile(`the answer is ([a-d])`)},
	{rule: RuleSpeakerIsSaying, re: regexp.MustCompile(`the speaker is saying ([a-d])\)`)},
	{rule: RuleLeadingLetter, re: regexp.MustCompile(`^([a-d])\)`)},
}

// Match is a successfully parsed guess.
type Match struct {
	Guess string
	Rule  Rule
}

// ExtractGuess returns the option letter chosen in response. The second
// return value is false when no pattern matched.
func ExtractGuess(response string) (Match, bool) {
	normalized := strings.ToLower(strings.TrimSpace(response))
	for _, p := range patterns {
		if groups := p.re.FindStringSubmatch(normalized); groups != nil {
			return Match{Guess: groups[1], Rule: p.rule}, true
		}
	}
	return Match{}, false
}
