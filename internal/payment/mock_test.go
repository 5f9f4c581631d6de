package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

type mockTxIndex struct {
	AddressTxidsList []string
	AddressTxidsErr  error
	TxDetailTxs      map[string]*Tx
	TxDetailErrs     map[string]error
}

func (m *mockTxIndex) AddressTxids(ctx context.Context, address string) ([]string, error) {
	return m.AddressTxidsList, m.AddressTxidsErr
}

func (m *mockTxIndex) TxDetail(ctx context.Context, txid, address string) (*Tx, error) {
	if err, ok := m.TxDetailErrs[txid]; ok {
		return nil, err
	}
	return m.TxDetailTxs[txid], nil
}

type mockBlockRater struct {
	Rates map[int64]decimal.Decimal
	Errs  map[int64]error
}

func (m *mockBlockRater) HistoricalRate(ctx context.Context, blockID int64, currency string) (decimal.Decimal, error) {
	if err, ok := m.Errs[blockID]; ok {
		return decimal.Zero, err
	}
	return m.Rates[blockID], nil
}
