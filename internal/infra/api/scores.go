package api

import (
	"context"
	"fmt"

	"trivia-client/internal/domain"
)

type episodeScoreRequest struct {
	PlayerName   string `json:"player_name"`
	EpisodeID    int    `json:"episode_id"`
	Score        int    `json:"score"`
	CorrectCount int    `json:"correct_count"`
	SpeedBonus   int    `json:"speed_bonus"`
}

type mixedScoreRequest struct {
	PlayerName        string `json:"player_name"`
	Score             int    `json:"score"`
	CorrectCount      int    `json:"correct_count"`
	SpeedBonus        int    `json:"speed_bonus"`
	QuestionsAnswered int    `json:"questions_answered"`
}

type legacyScoreRequest struct {
	EpisodeID  int    `json:"episode_id"`
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
}

type scoreResponse struct {
	Success     *bool `json:"success"`
	IsNewRecord bool  `json:"is_new_record"`
	BestScore   *int  `json:"best_score"`
}

// SubmitScore posts a finished round. Episode scores fall back to the legacy route on 404.
func (c *Client) SubmitScore(ctx context.Context, player string, result domain.RoundResult) (domain.SubmitOutcome, error) {
	var res scoreResponse
	switch result.Mode {
	case domain.ModeMixed:
		err := c.postJSON(ctx, "/api/score/mixed", mixedScoreRequest{
			PlayerName:        player,
			Score:             result.Score,
			CorrectCount:      result.CorrectCount,
			SpeedBonus:        result.SpeedBonusCount,
			QuestionsAnswered: result.QuestionsAnswered,
		}, &res)
		if err != nil {
			return domain.SubmitOutcome{}, err
		}

	case domain.ModeEpisode:
		if result.EpisodeID == nil {
			return domain.SubmitOutcome{}, fmt.Errorf("episode result without episode id: %w", domain.ErrRejected)
		}
		episodeID := *result.EpisodeID
		err := withLegacy(
			func() error {
				res = scoreResponse{}
				return c.postJSON(ctx, "/api/score/episode", episodeScoreRequest{
					PlayerName:   player,
					EpisodeID:    episodeID,
					Score:        result.Score,
					CorrectCount: result.CorrectCount,
					SpeedBonus:   result.SpeedBonusCount,
				}, &res)
			},
			func() error {
				res = scoreResponse{}
				return c.postJSON(ctx, "/api/leaderboard", legacyScoreRequest{
					EpisodeID:  episodeID,
					PlayerName: player,
					Score:      result.Score,
				}, &res)
			},
		)
		if err != nil {
			return domain.SubmitOutcome{}, err
		}

	default:
		return domain.SubmitOutcome{}, fmt.Errorf("unknown mode %q: %w", result.Mode, domain.ErrRejected)
	}

	if res.Success != nil && !*res.Success {
		return domain.SubmitOutcome{}, fmt.Errorf("score %w", domain.ErrRejected)
	}
	outcome := domain.SubmitOutcome{IsNewRecord: res.IsNewRecord, BestScore: result.Score}
	if res.BestScore != nil {
		outcome.BestScore = *res.BestScore
	}
	return outcome, nil
}
