package render

import (
	"strings"
	"unicode/utf8"
)

// WrapText breaks text into lines no wider than maxWidth using greedy packing:
// words are added to the current line until the measured width of the line
// would exceed maxWidth. Newlines start a new paragraph. A word wider than
// maxWidth starts a new line and is broken between runes.
func WrapText(measure func(string) float64, text string, maxWidth float64) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			if measure(word) > maxWidth {
				if line != "" {
					lines = append(lines, line)
				}
				pieces := breakWord(measure, word, maxWidth)
				lines = append(lines, pieces[:len(pieces)-1]...)
				line = pieces[len(pieces)-1]
				continue
			}
			if line == "" {
				line = word
				continue
			}
			candidate := line + " " + word
			if measure(candidate) > maxWidth {
				lines = append(lines, line)
				line = word
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return trimBlankEdges(lines)
}

// breakWord splits word into rune runs no wider than maxWidth. Every run holds
// at least one rune.
func breakWord(measure func(string) float64, word string, maxWidth float64) []string {
	var pieces []string
	piece := ""
	for _, r := range word {
		next := piece + string(r)
		if piece != "" && measure(next) > maxWidth {
			pieces = append(pieces, piece)
			next = string(r)
		}
		piece = next
	}
	return append(pieces, piece)
}

func trimBlankEdges(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	return lines[start:end]
}

// Ellipsize shortens s until s+"…" fits maxWidth. Strings that already fit are
// returned unchanged.
func Ellipsize(measure func(string) float64, s string, maxWidth float64) string {
	if measure(s) <= maxWidth {
		return s
	}
	for len(s) > 0 {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
		trimmed := strings.TrimRight(s, " ")
		if measure(trimmed+"…") <= maxWidth {
			return trimmed + "…"
		}
	}
	return "…"
}

// withEllipsis always ends s with "…", trimming runes until it fits maxWidth.
func withEllipsis(measure func(string) float64, s string, maxWidth float64) string {
	s = strings.TrimRight(s, " ")
	for s != "" && measure(s+"…") > maxWidth {
		_, size := utf8.DecodeLastRuneInString(s)
		s = strings.TrimRight(s[:len(s)-size], " ")
	}
	return s + "…"
}
