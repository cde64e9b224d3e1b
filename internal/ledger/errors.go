package ledger

import "errors"

// Error kinds surfaced by ledger operations. The enclosing transaction
// must be rolled back when any of these is returned.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInsufficientAsset = errors.New("insufficient asset balance")
	ErrAccountNotFound   = errors.New("account not found")
)
