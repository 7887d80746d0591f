package dex

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"swapV2/internal/amm"
	"swapV2/internal/model"
)

// LogPosition places an encoded event on a chain.
type LogPosition struct {
	BlockNumber uint64
	Timestamp   uint64
	TxIndex     uint64
	LogIndex    uint64
}

// EncodeEvent renders a pool event as the raw log the pool contract would
// emit. Block and transaction hashes are derived from the position so that
// re-encoding the same event is deterministic.
func EncodeEvent(chainID uint64, pool common.Address, pos LogPosition, ev amm.Event) (model.LogRecord, error) {
	poolABI, err := SwapV2ABI()
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("parse pool abi: %w", err)
	}

	var name string
	var args []interface{}
	switch ev.Kind {
	case amm.EventMint:
		name, args = model.EventMint, []interface{}{ev.Amount0, ev.Amount1}
	case amm.EventBurn:
		name, args = model.EventBurn, []interface{}{ev.Amount0, ev.Amount1}
	case amm.EventSwap:
		name, args = model.EventSwap, []interface{}{ev.AmountIn, ev.TokenIn, ev.AmountOut, ev.TokenOut}
	default:
		return model.LogRecord{}, fmt.Errorf("unsupported event kind %q", ev.Kind)
	}

	event := poolABI.Events[name]
	data, err := event.Inputs.NonIndexed().Pack(args...)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("pack %s: %w", name, err)
	}

	blockHash := syntheticBlockHash(chainID, pool, pos.BlockNumber)
	return model.LogRecord{
		ChainID:     chainID,
		BlockNumber: pos.BlockNumber,
		BlockHash:   blockHash.Hex(),
		TxHash:      syntheticTxHash(blockHash, pos.TxIndex).Hex(),
		TxIndex:     pos.TxIndex,
		LogIndex:    pos.LogIndex,
		Address:     pool.Hex(),
		Topics:      []string{event.ID.Hex(), topicFromAddress(ev.Caller).Hex()},
		Data:        hexutil.Encode(data),
		Timestamp:   pos.Timestamp,
		IngestedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}

func syntheticBlockHash(chainID uint64, pool common.Address, number uint64) common.Hash {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], chainID)
	binary.BigEndian.PutUint64(buf[8:], number)
	return crypto.Keccak256Hash(buf[:], pool.Bytes())
}

func syntheticTxHash(blockHash common.Hash, txIndex uint64) common.Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], txIndex)
	return crypto.Keccak256Hash(blockHash.Bytes(), buf[:])
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
