package poll

import (
	"strconv"

	"truefeedback/internal/domain"
)

// Keys used in the data map of agree/disagree questions
const (
	KeyAgree    = "agree"
	KeyDisagree = "disagree"
)

type tally struct {
	question domain.Question
	stats    domain.QuestionStats
	sum      int
	count    int
}

// Aggregate computes per-question statistics over responses. Answers that do not fit
// their question are skipped. The inputs are never modified.
func Aggregate(questions []domain.Question, responses []domain.Response) domain.Analytics {
	tallies := make(map[string]*tally, len(questions))
	for _, q := range questions {
		t := &tally{
			question: q,
			stats: domain.QuestionStats{
				QuestionText: q.Text,
				Type:         q.Type,
				Data:         make(map[string]int),
			},
		}
		switch q.Type {
		case domain.QuestionSingle, domain.QuestionMultiple:
			for _, opt := range q.Options {
				t.stats.Data[opt] = 0
			}
		case domain.QuestionAgree:
			t.stats.Data[KeyAgree] = 0
			t.stats.Data[KeyDisagree] = 0
		}
		tallies[q.ID] = t
	}

	for _, resp := range responses {
		// A response counts at most once per question
		counted := make(map[string]bool, len(resp.Answers))
		for _, a := range resp.Answers {
			t, ok := tallies[a.QuestionID]
			if !ok || counted[a.QuestionID] {
				continue
			}
			if t.add(a) {
				counted[a.QuestionID] = true
				t.stats.TotalResponses++
			}
		}
	}

	analytics := make(domain.Analytics, len(tallies))
	for id, t := range tallies {
		if t.question.Type == domain.QuestionRating {
			avg := 0.0
			if t.count > 0 {
				avg = float64(t.sum) / float64(t.count)
			}
			t.stats.AverageRating = &avg
		}
		analytics[id] = t.stats
	}

	return analytics
}

// add folds one answer into the tally and reports whether it was usable
func (t *tally) add(a domain.Answer) bool {
	q := t.question

	switch q.Type {
	case domain.QuestionSingle, domain.QuestionMultiple:
		if len(a.SelectedOptions) == 0 {
			return false
		}
		if q.Type == domain.QuestionSingle && len(a.SelectedOptions) != 1 {
			return false
		}
		for _, opt := range a.SelectedOptions {
			if !q.HasOption(opt) {
				return false
			}
		}
		for _, opt := range a.SelectedOptions {
			t.stats.Data[opt]++
		}
		return true

	case domain.QuestionAgree:
		if a.Agreement == nil {
			return false
		}
		if *a.Agreement {
			t.stats.Data[KeyAgree]++
		} else {
			t.stats.Data[KeyDisagree]++
		}
		return true

	case domain.QuestionRating:
		if a.Rating == nil || *a.Rating < 1 || *a.Rating > q.Scale() {
			return false
		}
		t.stats.Data[strconv.Itoa(*a.Rating)]++
		t.sum += *a.Rating
		t.count++
		return true
	}

	return false
}
