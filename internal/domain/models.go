package domain

import (
	"encoding/json"
	"time"
)

// Mode selects how a round draws and bounds its questions.
type Mode string

const (
	ModeEpisode Mode = "episode"
	ModeMixed   Mode = "mixed"
)

// ParseMode accepts the wire spelling of a mode.
func ParseMode(raw string) (Mode, bool) {
	switch Mode(raw) {
	case ModeEpisode, ModeMixed:
		return Mode(raw), true
	}
	return "", false
}

// Difficulty is the canonical difficulty tier of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DefaultPoints is the tier value used when upstream supplies no points.
func (d Difficulty) DefaultPoints() int {
	switch d {
	case DifficultyEasy:
		return 10
	case DifficultyHard:
		return 50
	default:
		return 20
	}
}

// Option represents a possible answer for a question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a normalized trivia item. CorrectOptionID always resolves to one of Options.
type Question struct {
	ID              string     `json:"id"`
	Text            string     `json:"text"`
	Options         []Option   `json:"options"`
	CorrectOptionID string     `json:"correctOptionId"`
	Difficulty      Difficulty `json:"difficulty"`
	BasePoints      int        `json:"basePoints"`
	// LowConfidence marks questions whose correct option was guessed rather than read from upstream.
	LowConfidence bool `json:"lowConfidence,omitempty"`
}

// QuestionSet is the ordered, immutable question list for one round.
type QuestionSet struct {
	Mode      Mode       `json:"mode"`
	EpisodeID *int       `json:"episodeId,omitempty"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// UpstreamQuiz is an undecoded question payload as returned by the question endpoints.
// Each question is kept raw so that one malformed entry can be excluded without failing the batch.
type UpstreamQuiz struct {
	EpisodeID   *int              `json:"episode_id,omitempty"`
	EpisodeName string            `json:"episode_name,omitempty"`
	Mode        string            `json:"mode,omitempty"`
	Questions   []json.RawMessage `json:"questions"`
}

// Episode is a catalogue entry.
type Episode struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	QuestionCount int    `json:"question_count"`
	IsLocked      bool   `json:"is_locked"`
	Description   string `json:"description"`
}

// SubmitOutcome is what the leaderboard reports back after a score submission.
type SubmitOutcome struct {
	IsNewRecord bool `json:"isNewRecord"`
	BestScore   int  `json:"bestScore"`
	// Confirmed is false when the outcome is a local fallback rather than a server answer.
	Confirmed bool `json:"confirmed"`
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}

// Leaderboard captures a ranked board plus the requesting player's own position when known.
type Leaderboard struct {
	Entries      []LeaderboardEntry `json:"entries"`
	PlayerRank   *int               `json:"playerRank,omitempty"`
	PlayerScore  *int               `json:"playerScore,omitempty"`
	TotalPlayers int                `json:"totalPlayers"`
}

// LeaderboardScope selects which board to read.
type LeaderboardScope struct {
	Kind      string // general, mixed or episode
	EpisodeID int
}

// PlayerStats summarizes a player's best scores.
type PlayerStats struct {
	PlayerName        string         `json:"player_name"`
	GlobalScore       int            `json:"global_score"`
	EpisodesCompleted int            `json:"episodes_completed"`
	EpisodeScores     map[string]int `json:"episode_scores"`
	MixedBestScore    int            `json:"mixed_best_score"`
}

// PendingResult is a round result whose submission failed and awaits a later sync.
type PendingResult struct {
	ID       string      `json:"id"`
	Player   string      `json:"player"`
	Result   RoundResult `json:"result"`
	QueuedAt time.Time   `json:"queuedAt"`
}
