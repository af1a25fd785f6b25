package fuzzy

import (
	"math"
	"strings"
)

// exactScore ranks identical strings ahead of near-identical ones.
const exactScore = 0.001

// Match scores text against pattern with the bitap algorithm, case-insensitively.
// Patterns longer than MaxPatternLength are cut to that many runes.
func Match(text, pattern string, opts Options) (float64, bool) {
	t := []rune(strings.ToLower(text))
	p := []rune(strings.ToLower(pattern))
	if len(p) == 0 || len(t) == 0 {
		return 1, false
	}

	limit := opts.MaxPatternLength
	if limit <= 0 || limit > 63 {
		limit = 63
	}
	if len(p) > limit {
		p = p[:limit]
	}

	if string(t) == string(p) {
		return 0, true
	}

	textLen, patternLen := len(t), len(p)
	// Offsets before the start of the text mean the start of the text.
	expected := max(0, opts.Location)
	score := func(errs, location int) float64 {
		return bitapScore(errs, location, expected, opts.Distance, patternLen)
	}

	alphabet := make(map[rune]uint64, patternLen)
	for i, r := range p {
		alphabet[r] |= 1 << uint(patternLen-i-1)
	}

	threshold := opts.Threshold

	if loc := indexFrom(t, p, expected); loc != -1 {
		threshold = math.Min(score(0, loc), threshold)
		if loc := lastIndexFrom(t, p, expected+patternLen); loc != -1 {
			threshold = math.Min(score(0, loc), threshold)
		}
	}

	matched := make([]bool, textLen)
	bestLocation := -1
	bestScore := 1.0
	binMax := patternLen + textLen
	mask := uint64(1) << uint(patternLen-1)
	var lastBits []uint64

	for i := 0; i < patternLen; i++ {
		// Widest window around the expected location still able to beat the threshold.
		binMin, binMid := 0, binMax
		for binMin < binMid {
			if score(i, expected+binMid) <= threshold {
				binMin = binMid
			} else {
				binMax = binMid
			}
			binMid = (binMax-binMin)/2 + binMin
		}
		binMax = binMid

		start := max(1, expected-binMid+1)
		finish := min(expected+binMid, textLen) + patternLen

		bits := make([]uint64, finish+2)
		bits[finish+1] = (1 << uint(i)) - 1

		for j := finish; j >= start; j-- {
			loc := j - 1

			var charMatch uint64
			if loc < textLen {
				charMatch = alphabet[t[loc]]
				if charMatch != 0 {
					matched[loc] = true
				}
			}

			bits[j] = ((bits[j+1] << 1) | 1) & charMatch
			if i != 0 {
				bits[j] |= (((at(lastBits, j+1) | at(lastBits, j)) << 1) | 1) | at(lastBits, j+1)
			}

			if bits[j]&mask != 0 {
				s := score(i, loc)
				if s <= threshold {
					threshold = s
					bestScore = s
					bestLocation = loc
					if bestLocation <= expected {
						break
					}
					start = max(1, 2*expected-bestLocation)
				}
			}
		}

		if score(i+1, expected) > threshold {
			break
		}
		lastBits = bits
	}

	if bestLocation < 0 {
		return 1, false
	}
	if longestRun(matched) < opts.MinMatchCharLength {
		return 1, false
	}
	if bestScore == 0 {
		bestScore = exactScore
	}

	return bestScore, true
}

func bitapScore(errs, location, expected, distance, patternLen int) float64 {
	accuracy := float64(errs) / float64(patternLen)
	proximity := location - expected
	if proximity < 0 {
		proximity = -proximity
	}

	if distance <= 0 {
		if proximity != 0 {
			return 1
		}
		return accuracy
	}

	return accuracy + float64(proximity)/float64(distance)
}

func at(bits []uint64, i int) uint64 {
	if i < 0 || i >= len(bits) {
		return 0
	}
	return bits[i]
}

func indexFrom(text, pattern []rune, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i+len(pattern) <= len(text); i++ {
		if hasPrefixAt(text, pattern, i) {
			return i
		}
	}
	return -1
}

func lastIndexFrom(text, pattern []rune, from int) int {
	if from > len(text)-len(pattern) {
		from = len(text) - len(pattern)
	}
	for i := from; i >= 0; i-- {
		if hasPrefixAt(text, pattern, i) {
			return i
		}
	}
	return -1
}

func hasPrefixAt(text, pattern []rune, i int) bool {
	for k, r := range pattern {
		if text[i+k] != r {
			return false
		}
	}
	return true
}

func longestRun(mask []bool) int {
	longest, run := 0, 0
	for _, m := range mask {
		if m {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return longest
}
