package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/spigell/ats-scorer/internal/ats"
	"github.com/spigell/ats-scorer/internal/history"
	"github.com/spigell/ats-scorer/internal/jobs"
)

const (
	goodScore = 80.0
	fairScore = 60.0
)

func colorScore(score float64) string {
	switch {
	case score >= goodScore:
		return color.GreenString("%.2f%%", score)
	case score >= fairScore:
		return color.YellowString("%.2f%%", score)
	default:
		return color.RedString("%.2f%%", score)
	}
}

func printScore(w io.Writer, source string, result ats.Result, details bool) {
	fmt.Fprintf(w, "%s %s\n", color.CyanString("→"), source)
	fmt.Fprintf(w, "ATS Selection Probability: %s\n", colorScore(result.Score))
	if !result.HasKeywords() {
		fmt.Fprintf(w, "  %s\n", color.YellowString("the job description has no keywords to match"))
	}

	if !details {
		return
	}

	friendly := color.GreenString("yes")
	if !result.Friendly {
		friendly = color.RedString("no")
	}
	fmt.Fprintf(w, "  Keyword match: %.2f%% (%d of %d keywords)\n",
		result.KeywordScore, len(result.Matched), len(result.Matched)+len(result.Missing))
	fmt.Fprintf(w, "  Format score:  %.2f%% (ATS friendly: %s)\n", result.FormatScore, friendly)
	fmt.Fprintf(w, "  Matched: %s\n", joinOrDash(result.Matched))
	fmt.Fprintf(w, "  Missing: %s\n", joinOrDash(result.Missing))
}

func printListings(w io.Writer, listings *jobs.Listings) {
	if listings.Len() == 0 {
		fmt.Fprintln(w, "No listings found.")
		return
	}

	fmt.Fprintf(w, "%-12s %-8s %-20s %-40s %s\n", "ID", "Score", "Company", "Title", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, listing := range listings.Items {
		score := color.HiBlackString("%-8s", "n/a")
		if listing.ATS != nil {
			score = padColored(colorScore(listing.ATS.Score), fmt.Sprintf("%.2f%%", listing.ATS.Score), 8)
		}
		fmt.Fprintf(w, "%-12s %s %-20s %-40s %s\n",
			shorten(listing.ID, 12), score, shorten(listing.Company, 20), shorten(listing.Title, 40), listing.URL)
	}
}

func printHistory(w io.Writer, records []history.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No scores found.")
		return
	}

	fmt.Fprintf(w, "%-16s %-8s %-20s %-30s %-20s %s\n", "Date", "Score", "Company", "Title", "Resume", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, r := range records {
		score := padColored(colorScore(r.Score), fmt.Sprintf("%.2f%%", r.Score), 8)
		fmt.Fprintf(w, "%-16s %s %-20s %-30s %-20s %s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), score,
			shorten(r.Company, 20), shorten(r.Title, 30), shorten(r.Resume, 20), r.Source)
	}
}

// padColored pads a colored value to width using the length of its plain form,
// since escape codes break fmt width handling.
func padColored(colored, plain string, width int) string {
	if pad := width - len([]rune(plain)); pad > 0 {
		return colored + strings.Repeat(" ", pad)
	}
	return colored
}

func shorten(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

func joinOrDash(words []string) string {
	if len(words) == 0 {
		return "-"
	}
	return strings.Join(words, ", ")
}
