package models

// SupportedCurrencies is the fixed set of currency codes the ledger accepts.
// The settlement currency (config.SettlementCurrency) must be one of these.
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "INR", "JPY", "THB", "VND", "AUD"}

func IsSupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}
