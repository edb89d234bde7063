package room

import "github.com/wfunc/chidiya/models"

// RecordedAnswer is a submission captured during a round, stamped with the
// server-observed time.
type RecordedAnswer struct {
	Choice models.Choice
	At     int64
}

// EvalRound is the subset of round data the evaluator needs.
type EvalRound struct {
	ItemText   string
	Flies      bool
	DeadlineTs int64
}

// Outcome partitions the evaluated players and carries the per-player
// detail used for the results broadcast.
type Outcome struct {
	Eliminated []string
	Survivors  []string
	Summary    models.RoundResultsSummary
}

// Evaluate resolves a round at its deadline. It is a pure function: given
// the same round, alive set and answers it always produces the same
// partition, so every player is judged against the same moment in time.
//
// A player with no recorded answer is incorrect and not-in-time by
// definition. Eliminated/Survivors preserve the order of alive.
func Evaluate(round EvalRound, alive []string, answers map[string]RecordedAnswer) Outcome {
	out := Outcome{
		Eliminated: make([]string, 0, len(alive)),
		Survivors:  make([]string, 0, len(alive)),
		Summary: models.RoundResultsSummary{
			ItemText:  round.ItemText,
			Flies:     round.Flies,
			PerPlayer: make(map[string]models.ResultDetail, len(alive)),
		},
	}

	for _, id := range alive {
		detail := models.ResultDetail{}
		if ans, ok := answers[id]; ok {
			detail.Choice = ans.Choice
			detail.Correct = (ans.Choice == models.ChoiceUd) == round.Flies
			detail.InTime = ans.At < round.DeadlineTs
		}
		out.Summary.PerPlayer[id] = detail

		if detail.Correct && detail.InTime {
			out.Survivors = append(out.Survivors, id)
		} else {
			out.Eliminated = append(out.Eliminated, id)
		}
	}

	return out
}
