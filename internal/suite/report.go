package suite

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/brendan.keane/apiconform/pkg/conform"
)

// Result is the verdict for one case
type Result struct {
	Name      string           `json:"name"`
	Passed    bool             `json:"passed"`
	Detail    string           `json:"detail,omitempty"`
	Status    int              `json:"status,omitempty"`
	Elapsed   time.Duration    `json:"-"`
	URL       string           `json:"url,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
	Failure   *conform.Failure `json:"failure,omitempty"`
}

func (r Result) fail(err error) Result {
	r.Passed = false
	r.Detail = err.Error()
	var failure *conform.Failure
	if stderrors.As(err, &failure) {
		r.Failure = failure
	}
	return r
}

// MarshalJSON adds elapsed_seconds
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		plain
		ElapsedSeconds float64 `json:"elapsed_seconds"`
	}{plain(r), r.Elapsed.Seconds()})
}

// Report collects the results of a run
type Report struct {
	Results  []Result      `json:"results"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"-"`
}

// NewReport tallies results
func NewReport(results []Result, duration time.Duration) *Report {
	report := &Report{Results: results, Duration: duration}
	for _, r := range results {
		if r.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	return report
}

// OK reports whether every case passed
func (r *Report) OK() bool {
	return r.Failed == 0
}

// JSON renders the report for --format json
func (r *Report) JSON() ([]byte, error) {
	type plain Report
	return json.MarshalIndent(struct {
		plain
		DurationSeconds float64 `json:"duration_seconds"`
	}{plain(*r), r.Duration.Seconds()}, "", "  ")
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5B47E0")).
			Padding(0, 2)

	passStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#98C379")).
			Padding(0, 1)

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#E06C75")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5C07B")).
			Bold(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5C6370"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E06C75")).
			PaddingLeft(7)

	summaryBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5B47E0")).
			Padding(0, 1).
			MarginTop(1)
)

// Render renders the report for the terminal
func (r *Report) Render() string {
	var output strings.Builder

	output.WriteString(headerStyle.Render("Contract verdict"))
	output.WriteString("\n\n")

	width := 0
	for _, result := range r.Results {
		width = max(width, len(result.Name))
	}

	for _, result := range r.Results {
		badge := passStyle.Render("PASS")
		if !result.Passed {
			badge = failStyle.Render("FAIL")
		}

		meta := fmt.Sprintf("%dms", result.Elapsed.Milliseconds())
		if result.Status != 0 {
			meta = fmt.Sprintf("%d  %s", result.Status, meta)
		}

		output.WriteString(fmt.Sprintf("%s %s  %s\n",
			badge,
			nameStyle.Render(fmt.Sprintf("%-*s", width, result.Name)),
			metaStyle.Render(meta)))

		if !result.Passed {
			output.WriteString(detailStyle.Render(result.Detail))
			output.WriteString("\n")
			if result.RequestID != "" {
				output.WriteString(detailStyle.Render(metaStyle.Render("request " + result.RequestID)))
				output.WriteString("\n")
			}
		}
	}

	summary := fmt.Sprintf("%d passed, %d failed in %s", r.Passed, r.Failed, r.Duration.Round(time.Millisecond))
	if r.OK() {
		summary = passStyle.Render("OK") + " " + summary
	} else {
		summary = failStyle.Render("FAILED") + " " + summary
	}
	output.WriteString(summaryBox.Render(summary))
	output.WriteString("\n")

	return output.String()
}
