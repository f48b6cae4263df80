package tools

import "github.com/dileep-u-k/agent-gateway/internal/store"

// Built-in collections of the default store.
const (
	FinanceTransactions = "finance_transactions"
	FinanceBudgets      = "finance_budgets"
	SalesDeals          = "sales_deals"
	HREmployees         = "hr_employees"
)

var builtinSchemas = map[string]store.Schema{
	FinanceTransactions: {Collection: FinanceTransactions, Fields: []store.Field{
		{Name: "id", Type: "string", Description: "Transaction ID"},
		{Name: "date", Type: "string", Description: "Transaction date (ISO format)"},
		{Name: "amount", Type: "number", Description: "Transaction amount"},
		{Name: "category", Type: "string", Description: "Category (e.g., 'software', 'utilities', 'office-supplies')"},
		{Name: "description", Type: "string", Description: "Transaction description"},
		{Name: "type", Type: "string", Description: "Type ('income' or 'expense')"},
		{Name: "currency", Type: "string", Description: "Currency code"},
		{Name: "status", Type: "string", Description: "Status (e.g., 'pending', 'cleared', 'reconciled')"},
		{Name: "vendor", Type: "string", Description: "Vendor name"},
		{Name: "department", Type: "string", Description: "Department (e.g., 'Sales', 'HR', 'Engineering')"},
	}},
	FinanceBudgets: {Collection: FinanceBudgets, Fields: []store.Field{
		{Name: "id", Type: "string", Description: "Budget line ID"},
		{Name: "month", Type: "string", Description: "Budget month (YYYY-MM)"},
		{Name: "department", Type: "string", Description: "Department"},
		{Name: "category", Type: "string", Description: "Category, or 'all'"},
		{Name: "amount", Type: "number", Description: "Budgeted amount"},
	}},
	SalesDeals: {Collection: SalesDeals, Fields: []store.Field{
		{Name: "id", Type: "string", Description: "Deal ID"},
		{Name: "name", Type: "string", Description: "Deal name"},
		{Name: "company", Type: "string", Description: "Company name"},
		{Name: "value", Type: "number", Description: "Deal value"},
		{Name: "stage", Type: "string", Description: "Sales stage (e.g., 'qualified', 'proposal', 'negotiation', 'closed-won', 'closed-lost')"},
		{Name: "owner", Type: "string", Description: "Sales owner"},
		{Name: "industry", Type: "string", Description: "Customer industry"},
		{Name: "expectedCloseDate", Type: "string", Description: "Expected close date (ISO format)"},
		{Name: "probability", Type: "number", Description: "Win probability (0-100)"},
		{Name: "createdAt", Type: "string", Description: "Creation date (ISO format)"},
	}},
	HREmployees: {Collection: HREmployees, Fields: []store.Field{
		{Name: "id", Type: "string", Description: "Employee ID"},
		{Name: "firstName", Type: "string", Description: "First name"},
		{Name: "lastName", Type: "string", Description: "Last name"},
		{Name: "email", Type: "string", Description: "Email address"},
		{Name: "department", Type: "string", Description: "Department"},
		{Name: "role", Type: "string", Description: "Job role or title"},
		{Name: "hireDate", Type: "string", Description: "Hire date (ISO format)"},
		{Name: "salary", Type: "number", Description: "Salary (if available)"},
		{Name: "utilization", Type: "number", Description: "Utilization percentage"},
	}},
}

// dateField is the field date-range filters apply to.
func dateField(collection string) string {
	switch collection {
	case FinanceTransactions:
		return "date"
	case SalesDeals:
		return "expectedCloseDate"
	case HREmployees:
		return "hireDate"
	}
	return "createdAt"
}

// amountField is the field amount filters apply to.
func amountField(collection string) string {
	if collection == FinanceTransactions || collection == FinanceBudgets {
		return "amount"
	}
	return "value"
}
