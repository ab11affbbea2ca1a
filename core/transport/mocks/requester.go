package mocks

import (
	"context"

	"bugsync/core/transport"

	"github.com/stretchr/testify/mock"
)

// Requester is a mock implementation of transport.Requester
type Requester struct {
	mock.Mock
}

func (m *Requester) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	args := m.Called(ctx, req)
	if resp, ok := args.Get(0).(*transport.Response); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Requester) Authenticated() bool {
	args := m.Called()
	return args.Bool(0)
}

// JSON builds a 200 response with body.
func JSON(body string) *transport.Response {
	return &transport.Response{Status: 200, Body: []byte(body)}
}
