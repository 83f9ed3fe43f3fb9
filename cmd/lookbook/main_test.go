package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/lookbook/internal/api"
	"github.com/maynagashev/lookbook/models"
)

// MockClient is a mock implementation of api.Client.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Upload(ctx context.Context, in models.InboundMetadata) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *MockClient) GetRecord(ctx context.Context, requestID string) (*models.ResolvedRecord, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResolvedRecord), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func clientFactory(t *testing.T, client api.Client, wantServer string) func(string) api.Client {
	return func(server string) api.Client {
		assert.Equal(t, wantServer, server)
		return client
	}
}

func TestRun_Upload(t *testing.T) {
	uploadArgs := []string{
		"upload", "-server", "http://srv:3033",
		"-url", "u", "-label", "Number Nine", "-type", "pant", "-season", "FW/04",
		"-show-name", "The High Streets", "-designer", "Takahiro Miyashita", "-description", "d",
	}

	t.Run("Явный request-id", func(t *testing.T) {
		client := new(MockClient)
		client.On("Upload", mock.Anything, mock.MatchedBy(func(in models.InboundMetadata) bool {
			return in.RequestID == "42" && in.ShowName == "The High Streets" && in.Type == "pant"
		})).Return(nil)

		var out bytes.Buffer
		err := run(context.Background(), append(uploadArgs, "-request-id", "42"), &out,
			clientFactory(t, client, "http://srv:3033"))
		require.NoError(t, err)
		assert.Equal(t, "42\n", out.String())
		client.AssertExpectations(t)
	})

	t.Run("request-id по умолчанию - UUID", func(t *testing.T) {
		client := new(MockClient)
		client.On("Upload", mock.Anything, mock.Anything).Return(nil)

		var out bytes.Buffer
		err := run(context.Background(), uploadArgs, &out, clientFactory(t, client, "http://srv:3033"))
		require.NoError(t, err)

		_, parseErr := uuid.Parse(strings.TrimSpace(out.String()))
		assert.NoError(t, parseErr)
	})

	t.Run("Ошибка сервера", func(t *testing.T) {
		client := new(MockClient)
		client.On("Upload", mock.Anything, mock.Anything).Return(api.ErrUpstream)

		err := run(context.Background(), uploadArgs, &bytes.Buffer{}, clientFactory(t, client, "http://srv:3033"))
		require.ErrorIs(t, err, api.ErrUpstream)
	})
}

func TestRun_Get(t *testing.T) {
	record := models.NewResolvedRecord(models.InboundMetadata{RequestID: "42", Label: "Number Nine"}, "")

	client := new(MockClient)
	client.On("GetRecord", mock.Anything, "42").Return(&record, nil)

	var out bytes.Buffer
	err := run(context.Background(), []string{"get", "-server", "http://srv", "-request-id", "42"}, &out,
		clientFactory(t, client, "http://srv"))
	require.NoError(t, err)

	var got models.ResolvedRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, record, got)
	client.AssertExpectations(t)
}

func TestRun_Usage(t *testing.T) {
	noClient := func(string) api.Client {
		t.Fatal("клиент не должен создаваться")
		return nil
	}

	tests := []struct {
		name string
		args []string
	}{
		{name: "Без команды", args: nil},
		{name: "Неизвестная команда", args: []string{"delete"}},
		{name: "get без request-id", args: []string{"get"}},
		{name: "Неизвестный флаг", args: []string{"upload", "-color", "red"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, &bytes.Buffer{}, noClient)
			require.ErrorIs(t, err, errUsage)
		})
	}
}
