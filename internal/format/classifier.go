package format

import (
	"log/slog"
	"regexp"
)

// Format identifies the structural form of a source document.
type Format string

const (
	Drama   Format = "drama"
	Prose   Format = "prose"
	Unknown Format = "unknown"
)

// Verdict is the result of classifying a document's text.
type Verdict struct {
	Format     Format
	Confidence float64
}

// Classifier detects whether a document is written as a dramatic script
// or prose narrative by counting structural markers in sampled windows.
// Classification is deterministic: the same text always yields the same
// verdict.
type Classifier struct {
	windowSize int
	minSignals int
	logger     *slog.Logger
}

const (
	defaultWindowSize = 4000
	defaultMinSignals = 4
)

// Dramatic markers: act/scene headers, all-caps speaker labels followed
// by a delimiter, stage directions, and a dramatis personae heading.
var (
	actSceneHeader   = regexp.MustCompile(`(?m)^\s*(?:ACT|SCENE|Act|Scene)\s+[IVXLCDM\d]+`)
	speakerLabel     = regexp.MustCompile(`(?m)^[A-Z][A-Z '.\-]{1,40}[.:]\s`)
	stageDirection   = regexp.MustCompile(`\[[^\]\n]{2,120}\]|\((?:Enter|Exit|Exeunt|Aside|Re-enter|Within)[^)\n]*\)`)
	dramatisPersonae = regexp.MustCompile(`(?i)dramatis\s+person`)
)

// Narrative markers: chapter/book/part headers, quoted dialogue with a
// reporting verb, and indented paragraph openings.
var (
	chapterHeader  = regexp.MustCompile(`(?m)^\s*(?:CHAPTER|BOOK|PART|Chapter|Book|Part)\s+[IVXLCDM\d]+`)
	reportedSpeech = regexp.MustCompile(`["\x{201c}][^"\x{201d}\n]{2,}["\x{201d}]\s*,?\s*(?:said|replied|asked|cried|answered|exclaimed|whispered|shouted|murmured|thought)\b|\b(?:said|replied|asked|cried|answered|exclaimed)\s+[A-Z][a-z]+`)
	indentedPara   = regexp.MustCompile(`(?m)^(?:    |\t)\S`)
)

type Option func(*Classifier)

func WithWindowSize(size int) Option {
	return func(c *Classifier) {
		if size > 0 {
			c.windowSize = size
		}
	}
}

func WithMinSignals(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.minSignals = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		windowSize: defaultWindowSize,
		minSignals: defaultMinSignals,
		logger:     slog.Default().With("component", "format_classifier"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify inspects sampled windows of text and returns a Verdict.
// Sampling is bounded, so cost does not grow with document size beyond
// the three windows.
func (c *Classifier) Classify(text string) Verdict {
	sample := c.sample(text)

	dramatic := countMatches(sample, actSceneHeader) +
		countMatches(sample, speakerLabel) +
		countMatches(sample, stageDirection) +
		countMatches(sample, dramatisPersonae)

	narrative := countMatches(sample, chapterHeader) +
		countMatches(sample, reportedSpeech) +
		countMatches(sample, indentedPara)

	total := dramatic + narrative

	c.logger.Debug("format signals counted",
		"sample_length", len(sample),
		"dramatic", dramatic,
		"narrative", narrative,
		"min_signals", c.minSignals)

	if total < c.minSignals || dramatic == narrative {
		return Verdict{Format: Unknown, Confidence: 0}
	}

	if dramatic > narrative {
		return Verdict{Format: Drama, Confidence: float64(dramatic) / float64(total)}
	}
	return Verdict{Format: Prose, Confidence: float64(narrative) / float64(total)}
}

// ClassifyWithOverride returns a full-confidence verdict for the override
// when one is supplied, and falls back to Classify otherwise. An override
// always wins so a known-bad classification can be corrected without
// touching the detection logic.
func (c *Classifier) ClassifyWithOverride(text string, override Format) Verdict {
	if override == Drama || override == Prose {
		c.logger.Debug("format override applied", "format", override)
		return Verdict{Format: override, Confidence: 1}
	}
	return c.Classify(text)
}

// sample concatenates fixed-size windows from the beginning, middle and
// end of the text. Short texts are used whole.
func (c *Classifier) sample(text string) string {
	if len(text) <= 3*c.windowSize {
		return text
	}
	mid := len(text)/2 - c.windowSize/2
	return text[:c.windowSize] + "\n" +
		text[mid:mid+c.windowSize] + "\n" +
		text[len(text)-c.windowSize:]
}

func countMatches(s string, re *regexp.Regexp) int {
	return len(re.FindAllStringIndex(s, -1))
}

// Parse converts a catalog format string into a Format. Empty input and
// unrecognized values map to Unknown.
func Parse(s string) Format {
	switch s {
	case string(Drama):
		return Drama
	case string(Prose):
		return Prose
	default:
		return Unknown
	}
}
