package safe

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		chainID uint64
		wantErr bool
	}{
		{
			name:    "Mainnet",
			chainID: 1,
			wantErr: false,
		},
		{
			name:    "Sepolia",
			chainID: 11155111,
			wantErr: false,
		},
		{
			name:    "Unsupported chain",
			chainID: 999999,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.chainID)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

const pendingFixture = `{
	"count": 1,
	"next": null,
	"results": [{
		"safe": "0x5afe5afe5afe5afe5afe5afe5afe5afe5afe5afe",
		"to": "0x1111111111111111111111111111111111111111",
		"value": "1000",
		"data": null,
		"operation": 0,
		"safeTxGas": 0,
		"baseGas": "0",
		"gasPrice": "0",
		"gasToken": "0x0000000000000000000000000000000000000000",
		"refundReceiver": "0x0000000000000000000000000000000000000000",
		"nonce": "12",
		"submissionDate": "2024-01-02T03:04:05Z",
		"modified": "2024-01-02T03:04:05Z",
		"safeTxHash": "0xabababababababababababababababababababababababababababababababab",
		"isExecuted": false,
		"dataDecoded": null,
		"confirmationsRequired": 2,
		"confirmations": [{
			"owner": "0x2222222222222222222222222222222222222222",
			"submissionDate": "2024-01-02T03:04:05Z",
			"signature": "0x01",
			"signatureType": "EOA"
		}]
	}]
}`

func TestClient_GetPendingTransactions(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, pendingFixture)
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL, server.Client())
	txs, err := client.GetPendingTransactions(context.Background(), testSafe)
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/safes/"+testSafe.Hex()+"/multisig-transactions/", gotPath)
	assert.Contains(t, gotQuery, "executed=false")
	require.Len(t, txs, 1)
	assert.Equal(t, uint64(12), txs[0].Nonce.Uint64())
	assert.Equal(t, "1000", txs[0].Value.String())
	assert.Zero(t, txs[0].SafeTxGas.Uint64())
	require.Len(t, txs[0].Confirmations, 1)

	data, err := txs[0].DataBytes()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestClient_ProposeTransaction(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL, nil)
	err := client.ProposeTransaction(context.Background(), testSafe, ProposalRequest{
		To:                      testTo.Hex(),
		Value:                   NewNumber(big.NewInt(1)),
		Nonce:                   NewNumber(big.NewInt(3)),
		ContractTransactionHash: common.Hash{0x01}.Hex(),
		Sender:                  testTo.Hex(),
	})
	require.NoError(t, err)
	assert.Equal(t, "1", body["value"])
	assert.Equal(t, "3", body["nonce"])
	assert.Equal(t, "0", body["safeTxGas"])
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Not found."}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL, nil)
	_, err := client.GetTransaction(context.Background(), common.Hash{})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClient_EstimateAndSafeInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/safes/"+testSafe.Hex()+"/multisig-transactions/estimations/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"safeTxGas":"100000"}`)
	})
	mux.HandleFunc("/api/v1/safes/"+testSafe.Hex()+"/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"address":"`+testSafe.Hex()+`","nonce":5,"threshold":2,"owners":["`+testTo.Hex()+`"],"version":"1.3.0+L2"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClientWithURL(server.URL, nil)

	est, err := client.EstimateSafeTxGas(context.Background(), testSafe, EstimationRequest{To: testTo.Hex()})
	require.NoError(t, err)
	assert.Equal(t, uint64(100000), est.SafeTxGas.Uint64())

	info, err := client.GetSafeInfo(context.Background(), testSafe)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), info.Nonce.Uint64())
	assert.Equal(t, 2, info.Threshold)
	assert.Equal(t, "1.3.0+L2", info.Version)
}

func TestDataDecoded_Actions(t *testing.T) {
	raw := `{"method":"multiSend","parameters":[{"name":"transactions","type":"bytes","value":"0x00","valueDecoded":[
		{"operation":0,"to":"0x1111111111111111111111111111111111111111","value":"1","data":null},
		{"operation":0,"to":"0x2222222222222222222222222222222222222222","value":"0","data":"0x1234"}
	]}]}`

	var decoded DataDecoded
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	actions := decoded.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, "1", actions[0].Value.String())
	assert.Equal(t, "0x00", decoded.Param("transactions"))
}
