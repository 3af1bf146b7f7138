package hostfuncs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/middle-dev/middle-sdk/application/codec"
)

type echoReq struct {
	Input string `json:"input"`
}

type echoResp struct {
	Output string `json:"output"`
}

func echo(_ context.Context, req echoReq) echoResp {
	return echoResp{Output: "echo: " + req.Input}
}

func TestNewHandler(t *testing.T) {
	handler := NewHandler(echo)

	t.Run("success", func(t *testing.T) {
		payload, err := codec.Encode(echoReq{Input: "hello"})
		require.NoError(t, err)

		respBytes, err := handler(context.Background(), payload)
		require.NoError(t, err)

		var resp echoResp
		require.NoError(t, codec.Decode(respBytes, &resp))
		assert.Equal(t, "echo: hello", resp.Output)
	})

	t.Run("undecodable payload", func(t *testing.T) {
		_, err := handler(context.Background(), []byte{0xc1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode request")
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := handler(context.Background(), nil)
		assert.Error(t, err)
	})
}

func TestNewSink(t *testing.T) {
	var got []string
	sink := NewSink(func(_ context.Context, msg string) { got = append(got, msg) })

	payload, err := codec.Encode("line")
	require.NoError(t, err)

	resp, err := sink(context.Background(), payload)
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, []string{"line"}, got)
}
