package domain

import "strings"

// Well-known account codes referenced by the journal and accrual engines.
const (
	AccountCodeCash              = "1100"
	AccountCodePrepaidExpenses   = "1400"
	AccountCodeAccountsPayable   = "2100"
	AccountCodeCreditCardPayable = "2200"
	AccountCodeDeferredRevenue   = "2400"
	AccountCodeSalesRevenue      = "4100"
	AccountCodeServiceRevenue    = "4200"
	AccountCodeGeneralExpense    = "5990"
)

// ChartAccountDef describes one account in the default chart.
type ChartAccountDef struct {
	Code        string
	Name        string
	Type        AccountType
	ParentCode  string
	Description string
}

// DefaultChart returns the default chart of accounts in creation order
// (parents before children).
func DefaultChart() []ChartAccountDef {
	return []ChartAccountDef{
		{Code: "1000", Name: "Assets", Type: AccountTypeAsset, Description: "Asset accounts"},
		{Code: "1100", Name: "Cash", Type: AccountTypeAsset, ParentCode: "1000", Description: "Cash on hand and in bank"},
		{Code: "1200", Name: "Accounts Receivable", Type: AccountTypeAsset, ParentCode: "1000", Description: "Amounts owed by customers"},
		{Code: "1300", Name: "Petty Cash", Type: AccountTypeAsset, ParentCode: "1000", Description: "Small cash fund"},
		{Code: "1400", Name: "Prepaid Expenses", Type: AccountTypeAsset, ParentCode: "1000", Description: "Expenses paid in advance"},

		{Code: "2000", Name: "Liabilities", Type: AccountTypeLiability, Description: "Liability accounts"},
		{Code: "2100", Name: "Accounts Payable", Type: AccountTypeLiability, ParentCode: "2000", Description: "Amounts owed to suppliers"},
		{Code: "2200", Name: "Credit Card Payable", Type: AccountTypeLiability, ParentCode: "2000", Description: "Credit card balances"},
		{Code: "2400", Name: "Deferred Revenue", Type: AccountTypeLiability, ParentCode: "2000", Description: "Revenue received in advance"},

		{Code: "3000", Name: "Equity", Type: AccountTypeEquity, Description: "Equity accounts"},
		{Code: "3100", Name: "Owner's Equity", Type: AccountTypeEquity, ParentCode: "3000", Description: "Owner's capital"},
		{Code: "3200", Name: "Retained Earnings", Type: AccountTypeEquity, ParentCode: "3000", Description: "Accumulated earnings"},

		{Code: "4000", Name: "Revenue", Type: AccountTypeRevenue, Description: "Revenue accounts"},
		{Code: "4100", Name: "Sales Revenue", Type: AccountTypeRevenue, ParentCode: "4000", Description: "Revenue from sales"},
		{Code: "4200", Name: "Service Revenue", Type: AccountTypeRevenue, ParentCode: "4000", Description: "Revenue from services"},

		{Code: "5000", Name: "Expenses", Type: AccountTypeExpense, Description: "Expense accounts"},
		{Code: "5100", Name: "Food & Beverage", Type: AccountTypeExpense, ParentCode: "5000", Description: "Meals and beverages"},
		{Code: "5200", Name: "Transportation", Type: AccountTypeExpense, ParentCode: "5000", Description: "Transport and fuel"},
		{Code: "5300", Name: "Accommodation", Type: AccountTypeExpense, ParentCode: "5000", Description: "Lodging"},
		{Code: "5400", Name: "Office Supplies", Type: AccountTypeExpense, ParentCode: "5000", Description: "Office materials"},
		{Code: "5500", Name: "Utilities", Type: AccountTypeExpense, ParentCode: "5000", Description: "Electricity, water, internet"},
		{Code: "5600", Name: "Healthcare", Type: AccountTypeExpense, ParentCode: "5000", Description: "Medical expenses"},
		{Code: "5700", Name: "Entertainment", Type: AccountTypeExpense, ParentCode: "5000", Description: "Entertainment expenses"},
		{Code: "5800", Name: "Retail/Shopping", Type: AccountTypeExpense, ParentCode: "5000", Description: "General retail purchases"},
		{Code: "5900", Name: "Professional Services", Type: AccountTypeExpense, ParentCode: "5000", Description: "Consulting, legal, accounting"},
		{Code: "5910", Name: "Software/Technology", Type: AccountTypeExpense, ParentCode: "5000", Description: "Software and technology"},
		{Code: "5920", Name: "Travel", Type: AccountTypeExpense, ParentCode: "5000", Description: "Business travel"},
		{Code: "5930", Name: "Education", Type: AccountTypeExpense, ParentCode: "5000", Description: "Training and education"},
		{Code: "5990", Name: "General Expense", Type: AccountTypeExpense, ParentCode: "5000", Description: "Uncategorized expenses"},
	}
}

var categoryExpenseAccounts = map[string]string{
	"food & beverage":       "5100",
	"transportation":        "5200",
	"accommodation":         "5300",
	"office supplies":       "5400",
	"utilities":             "5500",
	"healthcare":            "5600",
	"entertainment":         "5700",
	"retail/shopping":       "5800",
	"professional services": "5900",
	"software/technology":   "5910",
	"travel":                "5920",
	"education":             "5930",
	"general expense":       "5990",
}

var paymentMethodAccounts = map[string]string{
	"cash":             AccountCodeCash,
	"debit card":       AccountCodeCash,
	"bank transfer":    AccountCodeCash,
	"check":            AccountCodeCash,
	"credit card":      AccountCodeCreditCardPayable,
	"credit":           AccountCodeCreditCardPayable,
	"accounts payable": AccountCodeAccountsPayable,
}

// ExpenseAccountForCategory maps a transaction category to its expense
// account code. Unknown or empty categories fall back to General Expense.
func ExpenseAccountForCategory(category string) string {
	if code, ok := categoryExpenseAccounts[normalizeKey(category)]; ok {
		return code
	}
	return AccountCodeGeneralExpense
}

// AccountForPaymentMethod maps a payment method to the balancing account
// code. Unknown or empty methods fall back to Cash.
func AccountForPaymentMethod(method string) string {
	if code, ok := paymentMethodAccounts[normalizeKey(method)]; ok {
		return code
	}
	return AccountCodeCash
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
