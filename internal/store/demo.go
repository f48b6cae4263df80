package store

import (
	"fmt"
	"math"
	"time"
)

var (
	demoCategories  = []string{"payroll", "rent", "software", "marketing", "sales", "utilities", "travel", "office-supplies"}
	demoVendors     = []string{"Microsoft", "AWS", "Salesforce", "HubSpot", "Slack", "Zoom", "Adobe", "Google Workspace"}
	demoDepartments = []string{"Engineering", "Sales", "Marketing", "Operations", "HR"}
	demoStages      = []string{"lead", "qualified", "proposal", "negotiation", "closed-won", "closed-lost"}
	demoOwners      = []string{"Avery Chen", "Jordan Patel", "Sam Rivera", "Morgan Lee"}
	demoIndustries  = []string{"SaaS", "Retail", "Healthcare", "Manufacturing"}
	demoRoles       = []string{"Engineer", "Senior Engineer", "Account Executive", "Designer", "Analyst", "Manager"}
	demoFirstNames  = []string{"Jane", "Liam", "Noah", "Emma", "Olivia", "Mason", "Ava", "Ethan", "Mia", "Lucas"}
	demoLastNames   = []string{"Smith", "Garcia", "Kim", "Nguyen", "Brown", "Khan", "Rossi", "Silva"}
)

// seeded returns a deterministic pseudo-random value in [0,1).
func seeded(seed int) float64 {
	x := math.Sin(float64(seed)) * 10000
	return x - math.Floor(x)
}

func pick(list []string, seed int) string {
	return list[int(seeded(seed)*float64(len(list)))%len(list)]
}

// DemoData generates the fixture rows used by demo mode and the seed
// command. The data spans the eighteen months before now.
func DemoData(now time.Time) map[string][]Row {
	now = now.UTC()
	start := now.AddDate(0, -18, 0)
	span := now.Sub(start)
	at := func(seed int) time.Time {
		return start.Add(time.Duration(seeded(seed) * float64(span)))
	}
	day := func(t time.Time) string { return t.Format("2006-01-02") }

	txns := make([]Row, 0, 150)
	for i := 0; i < 150; i++ {
		date := at(i)
		typ, amount := "expense", math.Floor(100+seeded(i+200)*9900)
		if i%5 == 0 {
			typ, amount = "income", math.Floor(5000+seeded(i+100)*45000)
		}
		category := pick(demoCategories, i+300)
		vendor := pick(demoVendors, i+500)
		row := Row{
			"id":          fmt.Sprintf("txn_%d", i+1),
			"date":        day(date),
			"amount":      amount,
			"currency":    "USD",
			"type":        typ,
			"category":    category,
			"description": category + " - " + vendor,
			"status":      "cleared",
			"department":  pick(demoDepartments, i+400),
			"createdAt":   date.Format(time.RFC3339),
		}
		if typ == "expense" {
			row["vendor"] = vendor
		}
		txns = append(txns, row)
	}

	var budgets []Row
	for m := 0; m < 6; m++ {
		month := now.AddDate(0, -m, 0).Format("2006-01")
		for d, dept := range demoDepartments {
			budgets = append(budgets, Row{
				"id":         fmt.Sprintf("bud_%s_%d", month, d),
				"month":      month,
				"department": dept,
				"category":   "all",
				"amount":     math.Floor(20000 + seeded(m*10+d)*30000),
			})
		}
	}

	deals := make([]Row, 0, 40)
	for i := 0; i < 40; i++ {
		created := at(i + 1000)
		deals = append(deals, Row{
			"id":                fmt.Sprintf("deal_%d", i+1),
			"name":              fmt.Sprintf("Deal %d", i+1),
			"company":           fmt.Sprintf("Company %d", i%17+1),
			"value":             math.Floor(5000 + seeded(i+1100)*95000),
			"stage":             pick(demoStages, i+1200),
			"owner":             pick(demoOwners, i+1300),
			"industry":          pick(demoIndustries, i+1400),
			"probability":       math.Floor(seeded(i+1500) * 100),
			"expectedCloseDate": day(created.AddDate(0, 2, 0)),
			"createdAt":         created.Format(time.RFC3339),
		})
	}

	employees := make([]Row, 0, 30)
	for i := 0; i < 30; i++ {
		first, last := pick(demoFirstNames, i+2000), pick(demoLastNames, i+2100)
		employees = append(employees, Row{
			"id":          fmt.Sprintf("emp_%d", i+1),
			"firstName":   first,
			"lastName":    last,
			"email":       fmt.Sprintf("%s.%s%d@example.com", first, last, i+1),
			"department":  pick(demoDepartments, i+2200),
			"role":        pick(demoRoles, i+2300),
			"hireDate":    day(now.AddDate(0, 0, -int(seeded(i+2400)*2000))),
			"salary":      math.Floor(60000 + seeded(i+2500)*90000),
			"status":      "active",
			"utilization": math.Floor(50 + seeded(i+2600)*60),
		})
	}

	return map[string][]Row{
		"finance_transactions": txns,
		"finance_budgets":      budgets,
		"sales_deals":          deals,
		"hr_employees":         employees,
	}
}
