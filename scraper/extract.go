package scraper

import (
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// source is what one extraction round works against: the captured markup
// plus, when the page is still live, the session for script evaluation and
// scroll nudges. A nil session means static HTML only.
type source struct {
	html string
	sess session
}

// strategy is one way of recovering the embedded page state.
type strategy interface {
	name() string
	extract(src *source) (*RawPageState, bool)
}

var (
	scriptTagPattern = regexp.MustCompile(`(?s)<script[^>]*id="__UNIVERSAL_DATA_FOR_REHYDRATION__"[^>]*>(.*?)</script>`)
	sigiTagPattern   = regexp.MustCompile(`(?s)<script[^>]*id="SIGI_STATE"[^>]*>(.*?)</script>`)
	windowAssignment = regexp.MustCompile(`(?s)window\.__UNIVERSAL_DATA_FOR_REHYDRATION__\s*=\s*(\{.*?\});`)
	sigiAssignment   = regexp.MustCompile(`(?s)window\[['"]SIGI_STATE['"]\]\s*=\s*(\{.*?\});`)
	inlineScripts    = regexp.MustCompile(`(?s)<script[^>]*>(.*?)</script>`)
)

// scriptTagStrategy reads the dedicated state script tags. Cheapest and
// most reliable when the tag is present.
type scriptTagStrategy struct{}

func (scriptTagStrategy) name() string { return "script-tag" }

func (scriptTagStrategy) extract(src *source) (*RawPageState, bool) {
	for _, pattern := range []*regexp.Regexp{scriptTagPattern, sigiTagPattern} {
		m := pattern.FindStringSubmatch(src.html)
		if m == nil {
			continue
		}
		if state, ok := parseState([]byte(strings.TrimSpace(m[1]))); ok {
			return state, true
		}
	}
	return nil, false
}

// windowAssignmentStrategy reads inline `window.X = {...};` assignments,
// the form some page revisions ship instead of a dedicated tag.
type windowAssignmentStrategy struct{}

func (windowAssignmentStrategy) name() string { return "window-assignment" }

func (windowAssignmentStrategy) extract(src *source) (*RawPageState, bool) {
	for _, pattern := range []*regexp.Regexp{windowAssignment, sigiAssignment} {
		m := pattern.FindStringSubmatch(src.html)
		if m == nil {
			continue
		}
		if state, ok := parseState([]byte(m[1])); ok {
			return state, true
		}
	}
	return nil, false
}

// scriptScanStrategy brute-scans every inline script for a JSON object
// carrying the state marker keys, then carves out a balanced-brace slice
// around the first marker it finds.
type scriptScanStrategy struct{}

func (scriptScanStrategy) name() string { return "script-scan" }

func (scriptScanStrategy) extract(src *source) (*RawPageState, bool) {
	for _, m := range inlineScripts.FindAllStringSubmatch(src.html, -1) {
		body := m[1]
		for _, marker := range []string{`"UserModule"`, `"ItemModule"`, `"__DEFAULT_SCOPE__"`} {
			idx := strings.Index(body, marker)
			if idx < 0 {
				continue
			}
			blob, ok := enclosingObject(body, idx)
			if !ok {
				continue
			}
			if state, parsed := parseState([]byte(blob)); parsed {
				return state, true
			}
		}
		// Whole-body parse covers scripts that are a bare JSON document.
		trimmed := strings.TrimSpace(body)
		if strings.HasPrefix(trimmed, "{") {
			if state, ok := parseState([]byte(trimmed)); ok {
				return state, true
			}
		}
	}
	return nil, false
}

// enclosingObject walks outward from pos to the nearest opening brace, then
// forward counting brace depth (string-aware) to find the matching close.
func enclosingObject(s string, pos int) (string, bool) {
	start := strings.LastIndex(s[:pos], "{")
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// liveEvalStrategy asks the running page for its state object directly.
// Only applicable while the session is alive; it catches pages that build
// the state at runtime rather than server-side.
type liveEvalStrategy struct{}

func (liveEvalStrategy) name() string { return "live-eval" }

const stateProbeJS = `() => {
	const state = window.__UNIVERSAL_DATA_FOR_REHYDRATION__ || window.SIGI_STATE || window['SIGI_STATE'];
	if (!state) return "";
	try { return JSON.stringify(state); } catch (e) { return ""; }
}`

func (liveEvalStrategy) extract(src *source) (*RawPageState, bool) {
	if src.sess == nil {
		return nil, false
	}
	result, err := src.sess.Eval(stateProbeJS)
	if err != nil {
		return nil, false
	}
	raw, _ := result.Val().(string)
	if raw == "" {
		return nil, false
	}
	return parseState([]byte(raw))
}

// Extractor runs the strategy chain over several rounds, nudging the page
// between rounds to give late-hydrating content a chance to land.
type Extractor struct {
	Rounds       int
	Delay        time.Duration
	ScrollRounds int
	strategies   []strategy
}

// NewExtractor builds the default strategy chain.
func NewExtractor(rounds int, delay time.Duration) *Extractor {
	return &Extractor{
		Rounds:       rounds,
		Delay:        delay,
		ScrollRounds: 3,
		strategies: []strategy{
			scriptTagStrategy{},
			windowAssignmentStrategy{},
			scriptScanStrategy{},
			liveEvalStrategy{},
		},
	}
}

// Run attempts extraction until a strategy succeeds or the rounds are
// exhausted. It never fails the scrape: a nil state is a legitimate outcome
// handed to the normalizer, which falls back to markup heuristics.
func (e *Extractor) Run(src *source) *RawPageState {
	rounds := e.Rounds
	if rounds < 1 {
		rounds = 1
	}
	for round := 0; round < rounds; round++ {
		if round > 0 {
			time.Sleep(e.Delay)
			if src.sess != nil && round <= e.ScrollRounds {
				src.sess.ScrollNudge()
			}
			if src.sess != nil {
				if html, err := src.sess.HTML(); err == nil {
					src.html = html
				}
			}
		}

		for _, st := range e.strategies {
			if state, ok := st.extract(src); ok {
				slog.Debug("page state extracted", "strategy", st.name(), "round", round+1)
				return state
			}
		}

		// Static markup cannot change between rounds.
		if src.sess == nil {
			break
		}
		slog.Debug("extraction round produced no state", "round", round+1)
	}
	return nil
}
