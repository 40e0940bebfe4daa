package chat

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Option is one selectable menu entry parsed from bot text.
type Option struct {
	// Key is what the backend expects back as the next user message.
	Key   string `json:"key"`
	Label string `json:"label"`
}

// MenuFormat is the backend's convention for numbered menu lines:
// `<digits><marker> <label>`.
type MenuFormat struct {
	// Markers are the glyphs that may follow the digits, e.g. the keycap
	// sequence U+FE0F U+20E3.
	Markers []string
	// HintOptions is how many leading ordinals (1..n) count toward the
	// options-visible hint.
	HintOptions int
	// MaxOptions caps extraction; zero means no cap.
	MaxOptions    int
	OrdinalSuffix string
}

// DefaultMenuFormat matches keycap digits like "1️⃣".
func DefaultMenuFormat() MenuFormat {
	return MenuFormat{
		Markers:       []string{"\uFE0F\u20E3", "\u20E3"},
		HintOptions:   3,
		OrdinalSuffix: ".",
	}
}

// Menu extracts options according to a MenuFormat. It holds no mutable
// state and is safe for concurrent use.
type Menu struct {
	format  MenuFormat
	pattern *regexp.Regexp
}

func NewMenu(format MenuFormat) *Menu {
	markers := make([]string, 0, len(format.Markers))
	for _, m := range format.Markers {
		if m != "" {
			markers = append(markers, m)
		}
	}
	// Longest first so a full keycap sequence wins over its bare tail.
	sort.SliceStable(markers, func(i, j int) bool { return len(markers[i]) > len(markers[j]) })
	format.Markers = markers

	quoted := make([]string, len(markers))
	for i, m := range markers {
		quoted[i] = regexp.QuoteMeta(m)
	}
	var pattern *regexp.Regexp
	if len(quoted) > 0 {
		pattern = regexp.MustCompile(`(\d+)(?:` + strings.Join(quoted, "|") + `)([^\n]*)`)
	}
	return &Menu{format: format, pattern: pattern}
}

// Extract returns the options encoded in text, left to right, without
// duplicates. Text with no numbered marker lines yields an empty slice.
func (m *Menu) Extract(text string) []Option {
	if m.pattern == nil {
		return []Option{}
	}
	matches := m.pattern.FindAllStringSubmatch(text, -1)
	options := make([]Option, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, match := range matches {
		key := match[1]
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		options = append(options, Option{
			Key:   key,
			Label: strings.TrimSpace(key + m.format.OrdinalSuffix + match[2]),
		})
		if m.format.MaxOptions > 0 && len(options) == m.format.MaxOptions {
			break
		}
	}
	return options
}

// Hint reports whether text carries any of the first HintOptions ordinals
// with a marker. It is advisory; Extract decides what is clickable.
func (m *Menu) Hint(text string) bool {
	for i := 1; i <= m.format.HintOptions; i++ {
		n := strconv.Itoa(i)
		for _, marker := range m.format.Markers {
			if strings.Contains(text, n+marker) {
				return true
			}
		}
	}
	return false
}
