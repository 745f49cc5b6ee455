package news

// TotalVotes sums the selection counts of all options.
func (q *QuizItem) TotalVotes() int {
	total := 0
	for _, option := range q.Options {
		total += option.SelectionCount
	}
	return total
}

// Percentage returns the share of votes an option received, 0 when nobody voted.
func (q *QuizItem) Percentage(index int) float64 {
	total := q.TotalVotes()
	if total == 0 || index < 0 || index >= len(q.Options) {
		return 0
	}
	return float64(q.Options[index].SelectionCount) / float64(total) * 100
}

// Answer records the local selection. Only the first answer counts; it
// reports whether the selected option is the correct one.
func (q *QuizItem) Answer(index int) (correct bool, accepted bool) {
	if q.selected != nil || index < 0 || index >= len(q.Options) {
		return false, false
	}
	q.selected = &index
	return index == q.CorrectOptionIndex, true
}

// Selected returns the locally selected option, if any.
func (q *QuizItem) Selected() (int, bool) {
	if q.selected == nil {
		return 0, false
	}
	return *q.selected, true
}
