package safe

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// MetaTx is one call packed into a multiSend payload
type MetaTx struct {
	Operation uint8
	To        common.Address
	Value     *big.Int
	Data      []byte
}

// EncodeMultiSendData packs calls as operation (1 byte), to (20 bytes),
// value (32 bytes), data length (32 bytes) and data, back to back
func EncodeMultiSendData(txs []MetaTx) []byte {
	var out []byte
	for _, tx := range txs {
		out = append(out, tx.Operation)
		out = append(out, tx.To.Bytes()...)
		out = append(out, math.U256Bytes(new(big.Int).Set(orZero(tx.Value)))...)
		out = append(out, math.U256Bytes(new(big.Int).SetInt64(int64(len(tx.Data))))...)
		out = append(out, tx.Data...)
	}
	return out
}

// EncodeMultiSendCall wraps the packed calls into multiSend(bytes)
func EncodeMultiSendCall(txs []MetaTx) ([]byte, error) {
	return MultiSendABI.Pack("multiSend", EncodeMultiSendData(txs))
}
