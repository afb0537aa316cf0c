package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// newNode serves JSON-RPC from a method -> result table.
func newNode(t *testing.T, results map[string]interface{}) (*httptest.Server, *[]rpcRequest) {
	t.Helper()
	var seen []rpcRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var req rpcRequest
		assert.NoError(t, json.Unmarshal(body, &req))
		seen = append(seen, req)

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if result, ok := results[req.Method]; ok {
			resp["result"] = result
		} else {
			resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestEthereumClientQueries(t *testing.T) {
	srv, _ := newNode(t, map[string]interface{}{
		"eth_chainId":             "0xaa36a7",
		"eth_gasPrice":            "0x3b9aca00",
		"eth_getTransactionCount": "0x5",
		"eth_getBalance":          "0xde0b6b3a7640000",
	})

	client, err := Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	account := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

	chainID, err := client.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "11155111", chainID.String())

	price, err := client.SuggestGasPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000000000", price.String())

	nonce, err := client.NonceAt(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), nonce)

	balance, err := client.BalanceAt(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", balance.String())
}

func TestSendRawTransaction(t *testing.T) {
	hash := "0x2f1c5c2b44f771e942a8506148e256f94f1a464babc938ae0690c6e34cd79190"
	srv, seen := newNode(t, map[string]interface{}{
		"eth_sendRawTransaction": hash,
	})

	client, err := Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	defer client.Close()

	got, err := client.SendRawTransaction(context.Background(), []byte{0xf8, 0x6c})
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash(hash), got)

	require.Len(t, *seen, 1)
	var param string
	require.NoError(t, json.Unmarshal((*seen)[0].Params[0], &param))
	assert.Equal(t, "0xf86c", param)
}

func TestSendRawTransactionRejected(t *testing.T) {
	srv, _ := newNode(t, map[string]interface{}{})

	client, err := Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.SendRawTransaction(context.Background(), []byte{0x01})
	assert.ErrorContains(t, err, "eth_sendRawTransaction")
}

func TestWaitForReceiptTimesOutWhenNeverMined(t *testing.T) {
	// a null result is how nodes report "not mined yet"
	srv, _ := newNode(t, map[string]interface{}{
		"eth_getTransactionReceipt": nil,
	})

	client, err := Dial(context.Background(), srv.URL, WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.WaitForReceipt(context.Background(), testHash, 50*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReceiptNotFound(t *testing.T) {
	srv, _ := newNode(t, map[string]interface{}{
		"eth_getTransactionReceipt": nil,
	})

	client, err := Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	defer client.Close()

	receipt, err := client.Receipt(context.Background(), testHash)
	assert.ErrorIs(t, err, ethereum.NotFound)
	assert.Nil(t, receipt)
}

func TestDialRequiresURL(t *testing.T) {
	_, err := Dial(context.Background(), "")
	assert.Error(t, err)
}

func TestParseHash(t *testing.T) {
	hash, err := ParseHash(testHash.Hex())
	require.NoError(t, err)
	assert.Equal(t, testHash, hash)

	for _, bad := range []string{"", "0x", "0x1234", testHash.Hex()[2:], testHash.Hex() + "00"} {
		_, err := ParseHash(bad)
		assert.Error(t, err, bad)
	}
}
