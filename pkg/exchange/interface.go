package exchange

import "context"

// Provider exposes trading capabilities in an exchange-agnostic fashion.
type Provider interface {
	// Order management.
	PlaceOrder(ctx context.Context, order Order) (*OrderResponse, error)
	CancelOrder(ctx context.Context, asset int, oid int64) error
	GetOpenOrders(ctx context.Context) ([]OrderStatus, error)

	// Position management.
	GetPositions(ctx context.Context) ([]Position, error)
	ClosePosition(ctx context.Context, coin string) (*OrderResponse, error)
	UpdateLeverage(ctx context.Context, asset int, isCross bool, leverage int) error

	// IOCMarket submits an immediate-or-cancel market order sized in base
	// units, converting it internally to a marketable limit order offset
	// by slippage. Both concrete providers implement this identically.
	IOCMarket(ctx context.Context, coin string, isBuy bool, qty float64, slippage float64, reduceOnly bool) (*OrderResponse, error)

	// Account information.
	GetAccountState(ctx context.Context) (*AccountState, error)
	GetAccountValue(ctx context.Context) (float64, error)

	// Utilities.
	GetAssetIndex(ctx context.Context, coin string) (int, error)
}
