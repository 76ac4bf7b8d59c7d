package api

import (
	"context"
	"net/url"
	"strconv"

	"trivia-client/internal/domain"
)

// Episodes lists the catalogue.
func (c *Client) Episodes(ctx context.Context) ([]domain.Episode, error) {
	var episodes []domain.Episode
	if err := c.getJSON(ctx, "/api/episodes", nil, &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

// EpisodeQuiz fetches a batch of questions for one episode, falling back to the legacy route.
func (c *Client) EpisodeQuiz(ctx context.Context, episodeID, count int) (domain.UpstreamQuiz, error) {
	query := url.Values{}
	if count > 0 {
		query.Set("count", strconv.Itoa(count))
	}
	id := strconv.Itoa(episodeID)

	var quiz domain.UpstreamQuiz
	err := withLegacy(
		func() error {
			quiz = domain.UpstreamQuiz{}
			return c.getJSON(ctx, "/api/quiz/episode/"+id, query, &quiz)
		},
		func() error {
			quiz = domain.UpstreamQuiz{}
			return c.getJSON(ctx, "/api/quiz/"+id, query, &quiz)
		},
	)
	if err != nil {
		return domain.UpstreamQuiz{}, err
	}
	return quiz, nil
}

// MixedQuiz fetches the endless pool. A 404 means the backend has no mixed route.
func (c *Client) MixedQuiz(ctx context.Context) (domain.UpstreamQuiz, error) {
	var quiz domain.UpstreamQuiz
	if err := c.getJSON(ctx, "/api/quiz/mixed", nil, &quiz); err != nil {
		return domain.UpstreamQuiz{}, err
	}
	return quiz, nil
}
