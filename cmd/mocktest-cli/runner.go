package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/lshigami/mocktest/internal/analysis"
	"github.com/lshigami/mocktest/internal/attempt"
	"github.com/lshigami/mocktest/internal/exam"
)

type action int

const (
	actionContinue action = iota
	actionSubmitted
	actionQuit
)

// runner applies console commands to one attempt. mu is shared with the countdown.
type runner struct {
	mu      sync.Mutex
	attempt *attempt.Attempt
	file    *TestFile
	out     io.Writer
}

const help = `commands: n next, p previous, g <k> go to question k, a <value> answer,
c clear, r toggle review, s status, submit, q quit`

// handle runs one command line. Question numbers on the console are 1-based.
func (r *runner) handle(line string) action {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.attempt
	if a.State() == attempt.Submitted {
		return actionSubmitted
	}
	last := len(a.Test().Questions) - 1

	var err error
	switch cmd {
	case "":
		return actionContinue
	case "n":
		if a.Position() < last {
			err = a.Navigate(a.Position() + 1)
		}
	case "p":
		if a.Position() > 0 {
			err = a.Navigate(a.Position() - 1)
		}
	case "g":
		k, convErr := strconv.Atoi(arg)
		if convErr != nil {
			fmt.Fprintf(r.out, "g needs a question number, got %q\n", arg)
			return actionContinue
		}
		err = a.Navigate(k - 1)
	case "a":
		value := arg
		if a.Test().Questions[a.Position()].Type != exam.Numeric {
			value = strings.ToUpper(value)
		}
		err = a.SelectAnswer(a.Position(), value)
	case "c":
		err = a.ClearAnswer(a.Position())
	case "r":
		var marked bool
		if marked, err = a.ToggleReview(a.Position()); err == nil && !marked {
			fmt.Fprintln(r.out, "review mark removed")
		}
	case "s":
		r.printStatus()
		return actionContinue
	case "submit":
		if err = a.Submit(); err == nil {
			return actionSubmitted
		}
	case "q", "quit":
		return actionQuit
	case "h", "help":
		fmt.Fprintln(r.out, help)
		return actionContinue
	default:
		fmt.Fprintf(r.out, "unknown command %q\n%s\n", cmd, help)
		return actionContinue
	}
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return actionContinue
	}
	r.printQuestion()
	return actionContinue
}

func (r *runner) printQuestion() {
	a := r.attempt
	pos := a.Position()
	q := r.file.Questions[pos]
	fmt.Fprintf(r.out, "\nQ%d/%d [%s, %s, +%g/%g]", pos+1, len(r.file.Questions), q.Section, strings.ToUpper(q.Type), q.Marks, -abs(q.NegativeMarks))
	if a.IsMarked(pos) {
		fmt.Fprint(r.out, " (marked)")
	}
	fmt.Fprintf(r.out, "\n%s\n", q.Text)
	for _, key := range exam.DefaultOptions {
		if text, ok := q.Options[key]; ok {
			fmt.Fprintf(r.out, "  %s) %s\n", key, text)
		}
	}
	if v, ok := a.Responses()[pos]; ok {
		fmt.Fprintf(r.out, "your answer: %s\n", v)
	}
	fmt.Fprintf(r.out, "time left: %s\n", clock(a.Remaining()))
}

func (r *runner) printStatus() {
	snap := r.attempt.Snapshot()
	var b strings.Builder
	answered := 0
	for pos := 0; pos < snap.QuestionCount; pos++ {
		mark := "."
		switch {
		case snap.Answered(pos) && snap.Marked(pos):
			mark = "A*"
		case snap.Answered(pos):
			mark = "A"
		case snap.Marked(pos):
			mark = "*"
		}
		if snap.Answered(pos) {
			answered++
		}
		if pos == snap.Position {
			mark = "[" + mark + "]"
		}
		fmt.Fprintf(&b, "%d:%s ", pos+1, mark)
	}
	fmt.Fprintf(r.out, "%s\nanswered %d of %d, time left %s\n", strings.TrimSpace(b.String()), answered, snap.QuestionCount, clock(snap.RemainingSeconds))
}

// finish finalizes a submitted attempt and prints its result.
func (r *runner) finish(ctx context.Context, store attempt.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary, err := r.attempt.Finalize(ctx, store)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "\n== %s ==\n", r.file.Title)
	fmt.Fprintf(r.out, "score %g / %g  (correct %d, incorrect %d, unattempted %d)\n",
		summary.TotalMarks, summary.MaxMarks, summary.Correct, summary.Incorrect, summary.Unattempted)
	fmt.Fprintf(r.out, "time taken %s", clock(summary.TotalTimeSeconds))
	if summary.AutoSubmitted {
		fmt.Fprint(r.out, " (auto-submitted)")
	}
	fmt.Fprintf(r.out, "\nrank %d", *summary.Rank)
	if summary.Percentile != nil {
		fmt.Fprintf(r.out, ", percentile %g", *summary.Percentile)
	}
	fmt.Fprintln(r.out)

	results := r.attempt.Results()
	report := analysis.Project(results)
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nsection\tcorrect\tincorrect\tunattempted\taccuracy")
	for _, s := range append(report.Sections, report.Overall) {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.2f%%\n", s.Section, s.Correct, s.Incorrect, s.Unattempted, s.Accuracy)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	incorrect := analysis.Filter(results, analysis.FilterIncorrect, analysis.AllSections)
	if len(incorrect) > 0 {
		fmt.Fprintln(r.out, "\nreview:")
	}
	for _, res := range incorrect {
		fmt.Fprintf(r.out, "Q%d: you answered %s, correct %s (%+g)\n", res.Position+1, res.Selected, res.CorrectAnswer, res.Marks)
		if sol := r.file.Questions[res.Position].Solution; sol != "" {
			fmt.Fprintf(r.out, "    %s\n", sol)
		}
	}
	return nil
}

func clock(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
