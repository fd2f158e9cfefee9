package types

import "math/big"

// Account tracks the native-currency balance credited to an address by the
// issuance and marketplace engines. Balances only move through engine
// settlement paths; there is no external transfer surface in this core.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// EnsureAccount returns a usable account value, replacing nil pointers so
// callers can mutate the result without nil checks.
func EnsureAccount(acc *Account) *Account {
	if acc == nil {
		return &Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}
