package nexus

import (
	"context"
	"time"

	"nexusglobal/internal/apiclient"
)

// Адреса очков и рангов.
const (
	EndpointUserPoints    = "/api/points/user-points"
	EndpointPointsHistory = "/api/points/transactions"
	EndpointCurrentRank   = "/api/ranks/current"
)

// PointsSummary - очки пользователя по ногам дерева.
type PointsSummary struct {
	LeftPoints      float64 `json:"leftPoints"`
	RightPoints     float64 `json:"rightPoints"`
	TotalPoints     float64 `json:"totalPoints"`
	AvailablePoints float64 `json:"availablePoints"`
	WithdrawnPoints float64 `json:"withdrawnPoints"`
}

// Rank - ранг партнера.
type Rank struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Code            string  `json:"code"`
	RequiredPoints  float64 `json:"requiredPoints"`
	RequiredDirects int     `json:"requiredDirects"`
}

// RankProgress - текущий ранг и продвижение к следующему.
type RankProgress struct {
	CurrentRank     Rank    `json:"currentRank"`
	NextRank        *Rank   `json:"nextRank"`
	CurrentPoints   float64 `json:"currentPoints"`
	CurrentDirects  int     `json:"currentDirects"`
	ProgressPercent float64 `json:"progressPercentage"`
}

// PointsTransaction - движение очков.
type PointsTransaction struct {
	ID        int       `json:"id"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// PointsService - очки и ранги.
type PointsService struct {
	client *apiclient.Client
}

// NewPointsService создает PointsService.
func NewPointsService(client *apiclient.Client) *PointsService {
	return &PointsService{client: client}
}

// Summary возвращает сводку очков.
func (s *PointsService) Summary(ctx context.Context) (*PointsSummary, error) {
	var out PointsSummary
	if err := s.client.Get(ctx, EndpointUserPoints, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ranks возвращает прогресс по рангам.
func (s *PointsService) Ranks(ctx context.Context) (*RankProgress, error) {
	var out RankProgress
	if err := s.client.Get(ctx, EndpointCurrentRank, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History возвращает историю движений очков.
func (s *PointsService) History(ctx context.Context, q PageQuery) (*Page[PointsTransaction], error) {
	var out Page[PointsTransaction]
	if err := s.client.Get(ctx, EndpointPointsHistory, &out, apiclient.WithParams(q.params(nil))); err != nil {
		return nil, err
	}
	return &out, nil
}
