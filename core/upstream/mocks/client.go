package mocks

import (
	"context"

	"pr-dashboard/core/upstream"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of upstream.Client
type Client struct {
	mock.Mock
}

func (m *Client) ListPulls(ctx context.Context, state string, page, perPage int) ([]upstream.Pull, error) {
	args := m.Called(ctx, state, page, perPage)
	if pulls, ok := args.Get(0).([]upstream.Pull); ok {
		return pulls, args.Error(1)
	}
	return nil, args.Error(1)
}
