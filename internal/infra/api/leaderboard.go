package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"trivia-client/internal/domain"
)

type leaderboardEntry struct {
	Rank       int    `json:"rank"`
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
}

type leaderboardResponse struct {
	Entries      []leaderboardEntry `json:"entries"`
	PlayerRank   *int               `json:"player_rank"`
	PlayerScore  *int               `json:"player_score"`
	TotalPlayers int                `json:"total_players"`
}

type legacyPlayerEntry struct {
	Score int `json:"score"`
}

type legacyLeaderboardResponse struct {
	Top10        []leaderboardEntry `json:"top_10"`
	PlayerRank   *int               `json:"player_rank"`
	PlayerEntry  *legacyPlayerEntry `json:"player_entry"`
	TotalPlayers int                `json:"total_players"`
}

// Leaderboard reads a ranked board. player, when set, asks the backend for that player's own rank.
func (c *Client) Leaderboard(ctx context.Context, scope domain.LeaderboardScope, player string) (domain.Leaderboard, error) {
	query := url.Values{}
	if player != "" {
		query.Set("player_name", player)
	}

	switch scope.Kind {
	case "general", "mixed":
		var res leaderboardResponse
		if err := c.getJSON(ctx, "/api/leaderboard/"+scope.Kind, query, &res); err != nil {
			return domain.Leaderboard{}, err
		}
		return res.toDomain(), nil

	case "episode":
		id := strconv.Itoa(scope.EpisodeID)
		var out domain.Leaderboard
		err := withLegacy(
			func() error {
				var res leaderboardResponse
				if err := c.getJSON(ctx, "/api/leaderboard/episode/"+id, query, &res); err != nil {
					return err
				}
				out = res.toDomain()
				return nil
			},
			func() error {
				var res legacyLeaderboardResponse
				if err := c.getJSON(ctx, "/api/leaderboard/"+id, query, &res); err != nil {
					return err
				}
				out = res.toDomain()
				return nil
			},
		)
		return out, err

	default:
		return domain.Leaderboard{}, fmt.Errorf("unknown leaderboard %q", scope.Kind)
	}
}

// PlayerStats reads a player's best scores.
func (c *Client) PlayerStats(ctx context.Context, player string) (domain.PlayerStats, error) {
	var stats domain.PlayerStats
	if err := c.getJSON(ctx, "/api/player/"+url.PathEscape(player)+"/stats", nil, &stats); err != nil {
		return domain.PlayerStats{}, err
	}
	return stats, nil
}

func (r leaderboardResponse) toDomain() domain.Leaderboard {
	return domain.Leaderboard{
		Entries:      convertEntries(r.Entries),
		PlayerRank:   r.PlayerRank,
		PlayerScore:  r.PlayerScore,
		TotalPlayers: r.TotalPlayers,
	}
}

func (r legacyLeaderboardResponse) toDomain() domain.Leaderboard {
	lb := domain.Leaderboard{
		Entries:      convertEntries(r.Top10),
		PlayerRank:   r.PlayerRank,
		TotalPlayers: r.TotalPlayers,
	}
	if r.PlayerEntry != nil {
		score := r.PlayerEntry.Score
		lb.PlayerScore = &score
	}
	return lb
}

func convertEntries(in []leaderboardEntry) []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, 0, len(in))
	for _, e := range in {
		out = append(out, domain.LeaderboardEntry{Rank: e.Rank, PlayerName: e.PlayerName, Score: e.Score})
	}
	return out
}
