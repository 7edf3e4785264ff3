package domain

// Phase is the coarse lifecycle state of a room.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// Answer is one selectable option of a question.
type Answer struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
	Correct bool   `json:"correct"`
}

// Question carries the scoring flags of the source quiz: partial-credit splits
// max points across correct options, negative points penalize wrong picks.
type Question struct {
	ID             int64    `json:"id"`
	Content        string   `json:"content"`
	MaxPoints      float64  `json:"maxPoints"`
	PartialPoints  bool     `json:"partialPoints"`
	NegativePoints bool     `json:"negativePoints"`
	Answers        []Answer `json:"answers"`
}

// Quiz is an immutable snapshot of quiz content, loaded once per room per
// selection and replaced wholesale on re-selection.
type Quiz struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// PlayerInfo is the participant-list view of a room member.
type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Host bool   `json:"host"`
}

// LeaderboardEntry is one row of the descending-score ranking.
type LeaderboardEntry struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}
