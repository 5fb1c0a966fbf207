package enums

import "fmt"

// WalletEntryType labels rows in the wallet audit trail.
type WalletEntryType string

const (
	// WalletEntryCreditPending records earnings credited to the pending
	// balance when an order is confirmed or an invoice is paid.
	WalletEntryCreditPending WalletEntryType = "credit_pending"
	// WalletEntryRelease moves funds from pending to available on delivery.
	WalletEntryRelease          WalletEntryType = "release"
	WalletEntryWithdrawalDebit  WalletEntryType = "withdrawal_debit"
	WalletEntryWithdrawalRefund WalletEntryType = "withdrawal_refund"
)

var validWalletEntryTypes = []WalletEntryType{
	WalletEntryCreditPending,
	WalletEntryRelease,
	WalletEntryWithdrawalDebit,
	WalletEntryWithdrawalRefund,
}

func (w WalletEntryType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WalletEntryType.
func (w WalletEntryType) IsValid() bool {
	for _, candidate := range validWalletEntryTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWalletEntryType converts raw input into a WalletEntryType.
func ParseWalletEntryType(value string) (WalletEntryType, error) {
	for _, candidate := range validWalletEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet entry type %q", value)
}
