// Package summary turns the tasks due on one date into the sentence pushed
// to both phones, and phrases completion announcements.
package summary

import (
	"strings"

	"github.com/nhle/duetask/internal/model"
)

// Party is how one assignee group is addressed.
type Party struct {
	// Subject opens the sentence ("Dana", "You both").
	Subject string

	// Verb agrees with Subject and precedes the task titles ("needs to").
	Verb string

	// Done agrees with Subject and announces a finished task ("finished").
	Done string
}

// With returns p with Verb and Done replaced by the non-empty arguments.
func (p Party) With(verb, done string) Party {
	if verb = strings.TrimSpace(verb); verb != "" {
		p.Verb = verb
	}
	if done = strings.TrimSpace(done); done != "" {
		p.Done = done
	}
	return p
}

// Phrasebook holds the wording for the two people and the shared group.
type Phrasebook struct {
	First  Party
	Second Party
	Both   Party

	// And joins the last two titles of a list.
	And string

	// Connective joins the per-group sentences.
	Connective string

	// CompletedHeading titles completion announcements.
	CompletedHeading string
}

// English returns the default phrasebook for the two named people.
func English(first, second string) Phrasebook {
	return Phrasebook{
		First:            Party{Subject: first, Verb: "needs to", Done: "finished"},
		Second:           Party{Subject: second, Verb: "needs to", Done: "finished"},
		Both:             Party{Subject: "You both", Verb: "need to", Done: "wrapped up"},
		And:              "and",
		Connective:       "; ",
		CompletedHeading: "Task completed",
	}
}

// Summarizer renders summaries for one couple. The two names are the
// assignee values found on tasks.
type Summarizer struct {
	first  model.Assignee
	second model.Assignee
	book   Phrasebook
}

// New creates a Summarizer for the assignees first and second.
func New(first, second string, book Phrasebook) *Summarizer {
	return &Summarizer{
		first:  model.Assignee(first),
		second: model.Assignee(second),
		book:   book,
	}
}

// Summarize renders one sentence per non-empty assignee group, in the
// order first, second, both, joined by the connective. Tasks with an
// assignee that is neither person are counted as shared. Input order of
// titles within a group is kept.
func (s *Summarizer) Summarize(tasks []model.Task) string {
	var first, second, both []string
	for _, t := range tasks {
		title := strings.TrimSpace(t.Title)
		if title == "" {
			continue
		}
		switch t.Assignee {
		case s.first:
			first = append(first, title)
		case s.second:
			second = append(second, title)
		default:
			both = append(both, title)
		}
	}

	var sentences []string
	for _, g := range []struct {
		party  Party
		titles []string
	}{
		{s.book.First, first},
		{s.book.Second, second},
		{s.book.Both, both},
	} {
		if len(g.titles) == 0 {
			continue
		}
		sentences = append(sentences,
			g.party.Subject+" "+g.party.Verb+" "+JoinTitles(g.titles, s.book.And))
	}
	return strings.Join(sentences, s.book.Connective)
}

// Completed returns the heading and body announcing that task was done.
func (s *Summarizer) Completed(task model.Task) (heading, body string) {
	p := s.party(task.Assignee)
	return s.book.CompletedHeading, p.Subject + " " + p.Done + ": " + strings.TrimSpace(task.Title)
}

func (s *Summarizer) party(a model.Assignee) Party {
	switch a {
	case s.first:
		return s.book.First
	case s.second:
		return s.book.Second
	default:
		return s.book.Both
	}
}

// JoinTitles joins titles as "A", "A and B", or "A, B, and C".
func JoinTitles(titles []string, and string) string {
	switch len(titles) {
	case 0:
		return ""
	case 1:
		return titles[0]
	case 2:
		return titles[0] + " " + and + " " + titles[1]
	default:
		last := len(titles) - 1
		return strings.Join(titles[:last], ", ") + ", " + and + " " + titles[last]
	}
}
