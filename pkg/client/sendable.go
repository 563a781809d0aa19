package client

import (
	"context"

	"github.com/duytph/networkable/pkg/request"
)

// Sendable is a request bound to a client, ready to be sent.
// It is the unit of work of the WaitGroup and RunGroup helpers.
type Sendable interface {
	SendOrErr(ctx context.Context) error
}

// Call binds the endpoint and an optional result target to the Client,
// so the request can be sent later or concurrently.
func (c Client) Call(endpoint request.Endpoint, resultDef any) Sendable {
	return call{client: c, endpoint: endpoint, resultDef: resultDef}
}

type call struct {
	client    Client
	endpoint  request.Endpoint
	resultDef any
}

func (c call) SendOrErr(ctx context.Context) error {
	_, err := c.client.Send(ctx, c.endpoint, c.resultDef)
	return err
}
