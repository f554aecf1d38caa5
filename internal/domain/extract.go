package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// ExtractTxParams converts a backend transaction record back into the descriptor
// the owners signed, together with the confirmations collected so far.
func ExtractTxParams(details *models.TxDetails, safe common.Address) (models.SafeTransactionData, []models.Confirmation, error) {
	if details == nil {
		return models.SafeTransactionData{}, nil, fmt.Errorf("missing transaction details")
	}
	if err := details.TxInfo.Validate(); err != nil {
		return models.SafeTransactionData{}, nil, err
	}

	params := models.SafeTransactionData{
		Data:      hexutil.Bytes{},
		Operation: models.OperationCall,
	}
	if details.TxData != nil {
		if details.TxData.HexData != nil {
			params.Data = details.TxData.HexData
		}
		params.Operation = details.TxData.Operation
	}

	var confirmations []models.Confirmation
	if ms := details.Execution.Multisig; details.Execution.Type == models.ExecutionInfoMultisig && ms != nil {
		params.SafeTxGas = ms.SafeTxGas
		params.BaseGas = ms.BaseGas
		params.GasPrice = ms.GasPrice
		params.GasToken = ms.GasToken
		params.RefundReceiver = ms.RefundReceiver
		params.Nonce = ms.Nonce
		confirmations = append(confirmations, ms.Confirmations...)
	}

	info := details.TxInfo
	switch info.Type {
	case models.TxInfoTypeTransfer:
		if info.Transfer.TokenType == models.TokenTypeNative {
			params.To = info.Transfer.Recipient
			params.Value = info.Transfer.Value
		} else {
			params.To = info.Transfer.TokenAddress
			params.Value = txDataValue(details.TxData)
		}
	case models.TxInfoTypeCustom:
		params.To = info.Custom.To
		params.Value = info.Custom.Value
	case models.TxInfoTypeSettingsChange, models.TxInfoTypeCreation:
		params.To = safe
		params.Value = new(big.Int)
	}

	return params.Normalize(), confirmations, nil
}

func txDataValue(data *models.TxData) *big.Int {
	if data == nil || data.Value == nil {
		return new(big.Int)
	}
	return data.Value
}
