// Package ats scores a resume against a job description the way a naive
// Applicant Tracking System would: keyword overlap plus a formatting check.
//
// Everything in this package is a pure function of its text inputs. Reading
// documents, fetching job postings and loading configuration belong to the
// callers.
package ats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	// DefaultKeywordWeight is the share of the final score taken by keyword overlap.
	DefaultKeywordWeight = 0.7
	// DefaultFormatWeight is the share of the final score taken by the formatting check.
	DefaultFormatWeight = 0.3

	// MaxScore is the upper bound of every score produced here.
	MaxScore = 100.0

	weightTolerance = 1e-9
)

// Weights controls how the keyword and formatting sub-scores are combined.
type Weights struct {
	Keyword float64
	Format  float64
}

// DefaultWeights returns the 0.7 / 0.3 split.
func DefaultWeights() Weights {
	return Weights{Keyword: DefaultKeywordWeight, Format: DefaultFormatWeight}
}

// Validate ensures the weights keep the final score within [0, MaxScore].
func (w Weights) Validate() error {
	if math.IsNaN(w.Keyword) || math.IsNaN(w.Format) {
		return errors.New("weights must be numbers")
	}
	if w.Keyword < 0 || w.Format < 0 {
		return fmt.Errorf("weights must be non-negative, got keyword=%v format=%v", w.Keyword, w.Format)
	}
	if sum := w.Keyword + w.Format; sum > 1+weightTolerance {
		return fmt.Errorf("weights must sum to at most 1, got %v", sum)
	}
	return nil
}

// FormatCheck reports whether resume text is ATS-friendly.
type FormatCheck func(resumeText string) bool

// unfriendlyMarkers are matched as plain substrings, so "tables" or
// "imagery" also flag a resume.
var unfriendlyMarkers = []string{"table", "image"}

// IsATSFriendly is the default FormatCheck: the resume is friendly unless the
// words "table" or "image" appear anywhere in it, ignoring case.
func IsATSFriendly(resumeText string) bool {
	lower := strings.ToLower(resumeText)
	for _, marker := range unfriendlyMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// Result is the breakdown of a single scoring call.
type Result struct {
	// Score is the weighted ATS score in [0, MaxScore], not rounded.
	Score float64 `json:"score"`
	// KeywordScore is the percentage of job tokens found in the resume.
	KeywordScore float64 `json:"keyword_score"`
	// FormatScore is MaxScore when the resume is friendly, 0 otherwise.
	FormatScore float64 `json:"format_score"`
	Friendly    bool    `json:"friendly"`
	// Matched and Missing partition the job Token Set, both sorted.
	Matched []string `json:"matched,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// Scorer combines the tokenizer, the formatting check and the weights.
// A Scorer is immutable and safe for concurrent use.
type Scorer struct {
	weights   Weights
	tokenizer *Tokenizer
	format    FormatCheck
}

type Option func(*Scorer)

func WithWeights(w Weights) Option {
	return func(s *Scorer) { s.weights = w }
}

func WithTokenizer(t *Tokenizer) Option {
	return func(s *Scorer) {
		if t != nil {
			s.tokenizer = t
		}
	}
}

func WithFormatCheck(check FormatCheck) Option {
	return func(s *Scorer) {
		if check != nil {
			s.format = check
		}
	}
}

// NewScorer builds a Scorer with the default weights, English stop words and
// IsATSFriendly unless overridden by options.
func NewScorer(opts ...Option) (*Scorer, error) {
	s := &Scorer{
		weights: DefaultWeights(),
		format:  IsATSFriendly,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tokenizer == nil {
		s.tokenizer = NewTokenizer(nil)
	}
	if err := s.weights.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

var defaultScorer = &Scorer{
	weights:   DefaultWeights(),
	tokenizer: NewTokenizer(nil),
	format:    IsATSFriendly,
}

// ComputeScore scores resumeText against jobDescriptionText with the default
// weights and returns a value in [0, 100].
func ComputeScore(resumeText, jobDescriptionText string) float64 {
	return defaultScorer.Score(resumeText, jobDescriptionText).Score
}

// Weights returns the weights used by the scorer.
func (s *Scorer) Weights() Weights { return s.weights }

// Score computes the full breakdown for one resume and job description pair.
// A job description without any keywords scores 0 whatever the resume looks
// like; the formatting breakdown is still reported.
func (s *Scorer) Score(resumeText, jobDescriptionText string) Result {
	job := s.tokenizer.Tokenize(jobDescriptionText)
	keyword, matched, missing := KeywordMatch(s.tokenizer.Tokenize(resumeText), job)

	friendly := s.format(resumeText)
	format := 0.0
	if friendly {
		format = MaxScore
	}

	result := Result{
		KeywordScore: keyword,
		FormatScore:  format,
		Friendly:     friendly,
		Matched:      matched,
		Missing:      missing,
	}
	if job.Len() == 0 {
		return result
	}

	// Validated weights keep the sum within bounds; the clamp only absorbs
	// floating point drift.
	result.Score = math.Min(s.weights.Keyword*keyword+s.weights.Format*format, MaxScore)
	return result
}

// HasKeywords reports whether the breakdown was computed against a job
// description with at least one keyword.
func (r Result) HasKeywords() bool {
	return len(r.Matched)+len(r.Missing) > 0
}

// KeywordScore returns only the keyword overlap percentage.
func (s *Scorer) KeywordScore(resumeText, jobDescriptionText string) float64 {
	score, _, _ := KeywordMatch(s.tokenizer.Tokenize(resumeText), s.tokenizer.Tokenize(jobDescriptionText))
	return score
}

// KeywordMatch returns 100 * |resume ∩ job| / |job|, or 0 when job is empty,
// together with the sorted matched and missing job tokens.
func KeywordMatch(resume, job TokenSet) (float64, []string, []string) {
	if job.Len() == 0 {
		return 0, nil, nil
	}

	var matched, missing []string
	for token := range job {
		if resume.Contains(token) {
			matched = append(matched, token)
		} else {
			missing = append(missing, token)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)

	return MaxScore * float64(len(matched)) / float64(job.Len()), matched, missing
}
