package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/lookbook/internal/services"
	"github.com/maynagashev/lookbook/internal/storage"
)

const testBucket = "team-3-project-3"

// fakeLister возвращает заранее заданный листинг и запоминает запрошенные префиксы.
type fakeLister struct {
	objects  []storage.ObjectInfo
	err      error
	prefixes []string
}

func (f *fakeLister) ListObjects(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	f.prefixes = append(f.prefixes, prefix)
	if f.err != nil {
		return nil, f.err
	}
	return f.objects, nil
}

func (f *fakeLister) Bucket() string {
	return testBucket
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKeyResolver_Resolve(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	tests := []struct {
		name       string
		requestID  string
		lister     *fakeLister
		wantStatus services.ResolutionStatus
		wantKey    string
	}{
		{
			name:       "Пустой листинг",
			requestID:  "42",
			lister:     &fakeLister{},
			wantStatus: services.ResolutionNotFound,
		},
		{
			name:      "Последняя запись листинга без временных меток",
			requestID: "42",
			lister: &fakeLister{objects: []storage.ObjectInfo{
				{Key: "a"}, {Key: "b"}, {Key: "c"},
			}},
			wantStatus: services.ResolutionFound,
			wantKey:    "s3://team-3-project-3/c",
		},
		{
			name:      "Один объект",
			requestID: "42",
			lister: &fakeLister{objects: []storage.ObjectInfo{
				{Key: "images/42/final.jpg"},
			}},
			wantStatus: services.ResolutionFound,
			wantKey:    "s3://team-3-project-3/images/42/final.jpg",
		},
		{
			name:      "Самый свежий по LastModified",
			requestID: "7",
			lister: &fakeLister{objects: []storage.ObjectInfo{
				{Key: "images/7/b.jpg", LastModified: newer},
				{Key: "images/7/a.jpg", LastModified: older},
			}},
			wantStatus: services.ResolutionFound,
			wantKey:    "s3://team-3-project-3/images/7/b.jpg",
		},
		{
			name:      "Равные временные метки: побеждает позиция",
			requestID: "7",
			lister: &fakeLister{objects: []storage.ObjectInfo{
				{Key: "images/7/a.jpg", LastModified: newer},
				{Key: "images/7/b.jpg", LastModified: newer},
			}},
			wantStatus: services.ResolutionFound,
			wantKey:    "s3://team-3-project-3/images/7/b.jpg",
		},
		{
			name:      "Выбранная запись без ключа",
			requestID: "42",
			lister: &fakeLister{objects: []storage.ObjectInfo{
				{Key: "images/42/a.jpg"}, {Key: ""},
			}},
			wantStatus: services.ResolutionFailed,
		},
		{
			name:       "Ошибка транспорта",
			requestID:  "42",
			lister:     &fakeLister{err: errors.New("dial tcp: i/o timeout")},
			wantStatus: services.ResolutionFailed,
		},
		{
			name:       "Пустой идентификатор",
			requestID:  "",
			lister:     &fakeLister{},
			wantStatus: services.ResolutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := services.NewKeyResolver(tt.lister, nil, discardLogger())

			res := resolver.Resolve(context.Background(), tt.requestID)

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantKey, res.Key)
			if tt.wantStatus == services.ResolutionFailed {
				require.Error(t, res.Err)
				assert.ErrorIs(t, res.Err, services.ErrResolution)
			} else {
				assert.NoError(t, res.Err)
			}
		})
	}
}

func TestKeyResolver_Prefix(t *testing.T) {
	lister := &fakeLister{}
	resolver := services.NewKeyResolver(lister, nil, discardLogger())

	_ = resolver.Resolve(context.Background(), "42")

	require.Len(t, lister.prefixes, 1, "листинг должен выполняться ровно один раз")
	assert.Equal(t, "images/42/", lister.prefixes[0])
}

func TestKeyResolver_TransportErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	resolver := services.NewKeyResolver(&fakeLister{err: cause}, nil, discardLogger())

	res := resolver.Resolve(context.Background(), "42")

	assert.ErrorIs(t, res.Err, cause)
}

func TestSelectLatest(t *testing.T) {
	_, ok := services.SelectLatest(nil)
	assert.False(t, ok)

	latest, ok := services.SelectLatest([]storage.ObjectInfo{{Key: "only"}})
	require.True(t, ok)
	assert.Equal(t, "only", latest.Key)
}

func TestResolutionStatus_String(t *testing.T) {
	assert.Equal(t, "found", services.ResolutionFound.String())
	assert.Equal(t, "not_found", services.ResolutionNotFound.String())
	assert.Equal(t, "failed", services.ResolutionFailed.String())
	assert.Equal(t, "ResolutionStatus(9)", services.ResolutionStatus(9).String())
}
