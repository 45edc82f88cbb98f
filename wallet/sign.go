package wallet

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/evedex/exchange-sdk-go/entity"
)

// Signed payload wrappers: the payload as submitted plus the wallet
// signature over its packed digest.

type SignedLimitOrder struct {
	entity.LimitOrder
	Signature string `json:"signature"`
}

type SignedMarketOrder struct {
	entity.MarketOrder
	Signature string `json:"signature"`
}

type SignedStopLimitOrder struct {
	entity.StopLimitOrder
	Signature string `json:"signature"`
}

type SignedPositionCloseOrder struct {
	entity.PositionCloseOrder
	Signature string `json:"signature"`
}

type SignedReplaceLimitOrder struct {
	entity.ReplaceLimitOrder
	Signature string `json:"signature"`
}

type SignedReplaceStopLimitOrder struct {
	entity.ReplaceStopLimitOrder
	Signature string `json:"signature"`
}

type SignedTpSl struct {
	entity.TpSlCreate
	Signature string `json:"signature"`
}

type SignedWithdraw struct {
	entity.Withdraw
	Signature string `json:"signature"`
}

// packedDigest reproduces solidityPackedKeccak256 over string fields:
// the UTF-8 bytes of every field concatenated, then keccak256.
func packedDigest(fields ...string) []byte {
	var size int
	for _, f := range fields {
		size += len(f)
	}
	packed := make([]byte, 0, size)
	for _, f := range fields {
		packed = append(packed, f...)
	}
	return crypto.Keccak256(packed)
}

func (w *Wallet) signFields(fields ...string) (string, error) {
	return w.SignDigest(packedDigest(fields...))
}

// SignLimitOrder signs a limit order payload.
func (w *Wallet) SignLimitOrder(order entity.LimitOrder) (SignedLimitOrder, error) {
	sig, err := w.signFields(
		order.ID,
		order.Instrument,
		string(order.Side),
		order.Quantity.String(),
		order.LimitPrice.String(),
		string(order.TimeInForce),
		w.chainID,
	)
	if err != nil {
		return SignedLimitOrder{}, errors.Wrap(err, "sign limit order")
	}
	return SignedLimitOrder{LimitOrder: order, Signature: sig}, nil
}

// SignMarketOrder signs a market order payload.
func (w *Wallet) SignMarketOrder(order entity.MarketOrder) (SignedMarketOrder, error) {
	sig, err := w.signFields(
		order.ID,
		order.Instrument,
		string(order.Side),
		order.Quantity.String(),
		order.CashQuantity.String(),
		w.chainID,
	)
	if err != nil {
		return SignedMarketOrder{}, errors.Wrap(err, "sign market order")
	}
	return SignedMarketOrder{MarketOrder: order, Signature: sig}, nil
}

// SignStopLimitOrder signs a stop-limit order payload.
func (w *Wallet) SignStopLimitOrder(order entity.StopLimitOrder) (SignedStopLimitOrder, error) {
	sig, err := w.signFields(
		order.ID,
		order.Instrument,
		string(order.Side),
		order.Quantity.String(),
		order.LimitPrice.String(),
		order.StopPrice.String(),
		string(order.TimeInForce),
		w.chainID,
	)
	if err != nil {
		return SignedStopLimitOrder{}, errors.Wrap(err, "sign stop limit order")
	}
	return SignedStopLimitOrder{StopLimitOrder: order, Signature: sig}, nil
}

// SignPositionCloseOrder signs a close-position payload.
func (w *Wallet) SignPositionCloseOrder(order entity.PositionCloseOrder) (SignedPositionCloseOrder, error) {
	sig, err := w.signFields(order.ID, order.Instrument, order.Quantity.String(), w.chainID)
	if err != nil {
		return SignedPositionCloseOrder{}, errors.Wrap(err, "sign position close order")
	}
	return SignedPositionCloseOrder{PositionCloseOrder: order, Signature: sig}, nil
}

// SignReplaceLimitOrder signs an order replacement.
func (w *Wallet) SignReplaceLimitOrder(order entity.ReplaceLimitOrder) (SignedReplaceLimitOrder, error) {
	sig, err := w.signFields(order.OrderID, order.Quantity.String(), order.LimitPrice.String(), w.chainID)
	if err != nil {
		return SignedReplaceLimitOrder{}, errors.Wrap(err, "sign replace limit order")
	}
	return SignedReplaceLimitOrder{ReplaceLimitOrder: order, Signature: sig}, nil
}

// SignReplaceStopLimitOrder signs a stop-limit replacement.
func (w *Wallet) SignReplaceStopLimitOrder(order entity.ReplaceStopLimitOrder) (SignedReplaceStopLimitOrder, error) {
	sig, err := w.signFields(
		order.OrderID,
		order.Quantity.String(),
		order.LimitPrice.String(),
		order.StopPrice.String(),
		w.chainID,
	)
	if err != nil {
		return SignedReplaceStopLimitOrder{}, errors.Wrap(err, "sign replace stop limit order")
	}
	return SignedReplaceStopLimitOrder{ReplaceStopLimitOrder: order, Signature: sig}, nil
}

// SignTpSl signs a take-profit/stop-loss creation payload.
func (w *Wallet) SignTpSl(tpsl entity.TpSlCreate) (SignedTpSl, error) {
	sig, err := w.signFields(
		tpsl.ID,
		tpsl.Instrument,
		string(tpsl.Kind),
		string(tpsl.Side),
		tpsl.TriggerPrice.String(),
		tpsl.LimitPrice.String(),
		tpsl.Quantity.String(),
		w.chainID,
	)
	if err != nil {
		return SignedTpSl{}, errors.Wrap(err, "sign tpsl")
	}
	return SignedTpSl{TpSlCreate: tpsl, Signature: sig}, nil
}

// SignWithdraw signs a trading balance withdrawal.
func (w *Wallet) SignWithdraw(withdraw entity.Withdraw) (SignedWithdraw, error) {
	sig, err := w.signFields(
		string(withdraw.Currency),
		withdraw.Amount.String(),
		withdraw.Wallet,
		withdraw.Nonce,
		w.chainID,
	)
	if err != nil {
		return SignedWithdraw{}, errors.Wrap(err, "sign withdraw")
	}
	return SignedWithdraw{Withdraw: withdraw, Signature: sig}, nil
}
