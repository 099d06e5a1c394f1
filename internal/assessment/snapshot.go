package assessment

// Snapshot is a copy of the session state taken when an event fired.
type Snapshot struct {
	Event            Event
	State            State
	CourseID         string
	Quiz             Quiz
	Current          int
	Answers          AnswerSet
	RemainingSeconds int
	LowTime          bool
	AutoSubmitted    bool
	Result           *GradeResult
	Err              error
}

func (s Snapshot) CurrentQuestion() (Question, bool) {
	if s.Current < 0 || s.Current >= len(s.Quiz.Questions) {
		return Question{}, false
	}
	return s.Quiz.Questions[s.Current], true
}

func (s Snapshot) AnsweredCount() int {
	return len(s.Answers)
}

func (s Snapshot) IsAnswered(index int) bool {
	if index < 0 || index >= len(s.Quiz.Questions) {
		return false
	}
	_, ok := s.Answers[s.Quiz.Questions[index].ID]
	return ok
}

func (s Snapshot) IsLast() bool {
	return s.Current == len(s.Quiz.Questions)-1
}
