package render

import (
	"fmt"
	"strings"
	"time"
)

// ParsedEntry is one entry recovered from a plaintext digest.
type ParsedEntry struct {
	Title     string
	Authors   []string
	Truncated bool
	Published time.Time
	PDFURL    string
	AbsURL    string
	Summary   string
}

// ParsePlaintext reads a document produced by Render back into entries.
func ParsePlaintext(text string) ([]ParsedEntry, error) {
	_, body, ok := strings.Cut(text, headerRule+"\n")
	if !ok {
		return nil, fmt.Errorf("missing header rule")
	}

	var entries []ParsedEntry
	for _, block := range strings.Split(body, entryRule+"\n") {
		block = strings.TrimLeft(block, "\n")
		if !strings.HasPrefix(block, "Title: ") {
			continue
		}
		entry, err := parseBlock(block)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", len(entries)+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseBlock(block string) (ParsedEntry, error) {
	head, summary, ok := strings.Cut(block, "\nSummary:\n")
	if !ok {
		return ParsedEntry{}, fmt.Errorf("missing summary section")
	}

	var entry ParsedEntry
	entry.Summary = strings.TrimRight(summary, "\n")

	for _, line := range strings.Split(head, "\n") {
		key, value, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		switch key {
		case "Title":
			entry.Title = value
		case "Authors":
			if strings.HasSuffix(value, etAl) {
				entry.Truncated = true
				value = strings.TrimSuffix(value, etAl)
			}
			if value != "" {
				entry.Authors = strings.Split(value, ", ")
			}
		case "Published":
			published, err := time.Parse(dateLayout, value)
			if err != nil {
				return ParsedEntry{}, fmt.Errorf("parse published date: %w", err)
			}
			entry.Published = published
		case "PDF":
			entry.PDFURL = value
		case "arXiv":
			entry.AbsURL = value
		}
	}
	return entry, nil
}
