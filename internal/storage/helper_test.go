package storage_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"github.com/rohmanhakim/event-scraper/internal/processor"
	"github.com/rohmanhakim/event-scraper/internal/storage"
	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

type execerMock struct {
	mock.Mock
}

func (m *execerMock) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	called := m.Called(ctx, sql, args)
	return called.Get(0).(pgconn.CommandTag), called.Error(1)
}

type seenClientMock struct {
	mock.Mock
}

func (m *seenClientMock) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	return m.Called(ctx, keys).Get(0).(*redis.IntCmd)
}

func (m *seenClientMock) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	return m.Called(ctx, key, value, expiration).Get(0).(*redis.BoolCmd)
}

type sinkMock struct {
	mock.Mock
}

func (m *sinkMock) Upsert(ctx context.Context, event processor.Event) (storage.Outcome, failure.ClassifiedError) {
	called := m.Called(ctx, event)
	if err, ok := called.Get(1).(failure.ClassifiedError); ok && err != nil {
		return called.Get(0).(storage.Outcome), err
	}
	return called.Get(0).(storage.Outcome), nil
}

func (m *sinkMock) Close() error {
	return m.Called().Error(0)
}

func sampleEvent(hash string) processor.Event {
	d := time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)
	return processor.Event{
		Title:       "Show de Rock",
		Date:        &d,
		Location:    processor.Location{Venue: "Allianz Parque", City: "São Paulo", State: "SP"},
		Image:       &processor.Image{URL: "https://img.example.com/1.jpg"},
		Price:       &processor.Price{Min: 80, Max: 120, Currency: "BRL"},
		URL:         "https://www.sympla.com.br/evento/1",
		Category:    "shows",
		Tags:        []string{"ao-ar-livre"},
		ContentHash: hash,
		Source:      "sympla",
		ScrapedAt:   d.Add(-48 * time.Hour),
	}
}
