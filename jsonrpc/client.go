package jsonrpc

import (
	"context"
	stderrors "errors"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"

	lserrors "github.com/mezonai/lightsync/errors"
	"github.com/mezonai/lightsync/jsonx"
)

// Client calls a node's JSON-RPC endpoint over HTTP.
type Client struct {
	cli *jrpc2.Client
}

func NewClient(url string) *Client {
	ch := jhttp.NewChannel(url, nil)
	return &Client{cli: jrpc2.NewClient(ch, nil)}
}

// GenSyncSpec asks the node for its chain spec with a fresh light sync state.
func (c *Client) GenSyncSpec(ctx context.Context, raw bool) (string, error) {
	var out string
	if err := c.cli.CallResult(ctx, MethodSyncStateGenSyncSpec, []bool{raw}, &out); err != nil {
		return "", fromJRPC2Error(err)
	}
	return out, nil
}

// Methods lists the methods the node serves.
func (c *Client) Methods(ctx context.Context) ([]string, error) {
	var out rpcMethodsResponse
	if err := c.cli.CallResult(ctx, MethodRPCMethods, nil, &out); err != nil {
		return nil, fromJRPC2Error(err)
	}
	return out.Methods, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

// fromJRPC2Error turns a server error carrying error data back into a SyncStateError.
func fromJRPC2Error(err error) error {
	var rpcErr *jrpc2.Error
	if !stderrors.As(err, &rpcErr) || len(rpcErr.Data) == 0 {
		return err
	}
	var data errorData
	if jsonx.Unmarshal(rpcErr.Data, &data) != nil || data.Code == "" {
		return err
	}
	return lserrors.NewError(lserrors.ErrorCode(data.Code), data.Message)
}
