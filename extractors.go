package defconboard

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// LevelExtractor derives the national DEFCON level from the page text.
//
// LevelExtractor is a pure function: the same text always yields the same
// result. ok is false when no level could be found. Results outside 1-5 are
// discarded by the [Board].
//
// # Panic Safety
//
// Level extractors run inside a panic recovery boundary. A panicking
// extractor is treated as "no level" for that cycle and logged with a
// correlation ID; the cycle itself still publishes.
type LevelExtractor func(text string) (level int, ok bool)

var errNoCaptureGroup = errors.New("pattern must contain a capture group")

var levelPattern = regexp.MustCompile(`(?i)(?:DEFCON|Level)\s+([1-5])\b`)

// ExtractLevel is the default [LevelExtractor].
//
// It finds the first case-insensitive occurrence of "DEFCON" or "Level"
// followed by whitespace and a single digit 1-5. The keyword may be glued to
// a preceding word ("ThreatLevel 3"), but the digit must end a word, so
// "Level 12" and "DEFCON 3rd" yield no level. Digits outside that range
// never match, so "Level 7" yields no level.
func ExtractLevel(text string) (int, bool) {
	m := levelPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	return int(m[1][0] - '0'), true
}

// ExtractCommandState reports whether cmd is raised according to text.
//
// A command is raised iff its ID or any of its aliases occurs in text as a
// case-sensitive substring. Presence anywhere counts: the heuristic cannot
// tell a heading from a footnote.
func ExtractCommandState(text string, cmd Command) AlertState {
	for _, kw := range cmd.Keywords() {
		if strings.Contains(text, kw) {
			return StateRaised
		}
	}
	return StateNormal
}

// RegexLevelExtractor returns a [LevelExtractor] that reads the level from
// the first capture group of pattern.
//
// The first match wins. A match whose capture is not an integer yields no
// level. Returns an error if the pattern is invalid or has no capture group.
//
// Example:
//
//	// "Threat posture: 4 of 5"
//	extractor, err := defconboard.RegexLevelExtractor(`posture:\s*(\d)`)
func RegexLevelExtractor(pattern string) (LevelExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		return nil, errNoCaptureGroup
	}

	return func(text string) (int, bool) {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			return 0, false
		}
		level, err := strconv.Atoi(strings.TrimSpace(m[1]))
		if err != nil {
			return 0, false
		}
		return level, true
	}, nil
}

// MustRegexLevelExtractor is like [RegexLevelExtractor] but panics if the
// pattern is invalid.
func MustRegexLevelExtractor(pattern string) LevelExtractor {
	extractor, err := RegexLevelExtractor(pattern)
	if err != nil {
		panic("defconboard: invalid level pattern: " + err.Error())
	}
	return extractor
}

// FirstLevel returns a [LevelExtractor] that tries extractors in order and
// returns the first level found in 1-5. A result outside that range counts
// as a miss, so the next extractor still gets a chance.
//
// Example:
//
//	// Prefer a site-specific marker, fall back to the default heuristic
//	extractor := defconboard.FirstLevel(
//	    defconboard.MustRegexLevelExtractor(`data-level="(\d)"`),
//	    defconboard.ExtractLevel,
//	)
func FirstLevel(extractors ...LevelExtractor) LevelExtractor {
	return func(text string) (int, bool) {
		for _, extractor := range extractors {
			if level, ok := extractor(text); ok && level >= 1 && level <= 5 {
				return level, true
			}
		}
		return 0, false
	}
}
