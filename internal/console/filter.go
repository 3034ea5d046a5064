package console

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter modes accepted by NewOutputFilter.
const (
	FilterNone   = "none"
	FilterErrors = "errors"
	FilterSearch = "search"
	FilterRegex  = "regex"
)

// errorKeywords mark server log lines worth surfacing. Order matters for
// highlighting: the first keyword found is highlighted.
var errorKeywords = []string{
	"error",
	"exception",
	"fatal",
	"severe",
	"warning",
	"warn",
	"failed",
	"can't keep up",
	"stack trace",
	"caused by",
}

// OutputFilter selects lines from service logs or console output.
type OutputFilter struct {
	Mode          string
	Pattern       string
	CaseSensitive bool
	regex         *regexp.Regexp
}

// FilterResult represents the result of filtering a line
type FilterResult struct {
	Include   bool
	Highlight []int // start/end byte offsets of the match
}

// NewOutputFilter creates a new output filter. An empty mode means "none".
func NewOutputFilter(mode, pattern string, caseSensitive bool) (*OutputFilter, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = FilterNone
	}

	filter := &OutputFilter{
		Mode:          mode,
		Pattern:       pattern,
		CaseSensitive: caseSensitive,
	}

	switch mode {
	case FilterNone, FilterErrors, FilterSearch:
	case FilterRegex:
		if pattern == "" {
			break
		}
		flags := ""
		if !caseSensitive {
			flags = "(?i)"
		}
		compiled, err := regexp.Compile(flags + pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		filter.regex = compiled
	default:
		return nil, fmt.Errorf("unknown filter mode %q", mode)
	}

	return filter, nil
}

// Filter applies the filter to one line. Formatting markers are removed
// before matching so offsets refer to the visible text.
func (f *OutputFilter) Filter(line string) FilterResult {
	result := FilterResult{Include: true}
	visible := StripFormatting(line)

	switch f.Mode {
	case FilterErrors:
		lower := strings.ToLower(visible)
		for _, keyword := range errorKeywords {
			if idx := strings.Index(lower, keyword); idx >= 0 {
				result.Highlight = []int{idx, idx + len(keyword)}
				return result
			}
		}
		result.Include = false

	case FilterSearch:
		if f.Pattern == "" {
			return result
		}
		haystack, needle := visible, f.Pattern
		if !f.CaseSensitive {
			haystack, needle = strings.ToLower(haystack), strings.ToLower(needle)
		}
		if idx := strings.Index(haystack, needle); idx >= 0 {
			result.Highlight = []int{idx, idx + len(needle)}
		} else {
			result.Include = false
		}

	case FilterRegex:
		if f.regex == nil {
			return result
		}
		if match := f.regex.FindStringIndex(visible); match != nil {
			result.Highlight = match
		} else {
			result.Include = false
		}
	}

	return result
}

// FilterLines applies the filter to multiple lines
func (f *OutputFilter) FilterLines(lines []string) []string {
	if f.Mode == FilterNone {
		return lines
	}

	filtered := []string{}
	for _, line := range lines {
		if f.Filter(line).Include {
			filtered = append(filtered, line)
		}
	}
	return filtered
}

// FilterText filters newline separated text, keeping line order.
func (f *OutputFilter) FilterText(text string) string {
	if f.Mode == FilterNone || text == "" {
		return text
	}
	return strings.Join(f.FilterLines(strings.Split(text, "\n")), "\n")
}
