package domain

// Departments is the closed list of campus departments a ticket may name.
var Departments = []string{
	"DIC", "CSE", "Civil", "Mechanical", "AI", "AIML", "MBA",
	"Electrical", "Electronics", "ETC",
}

// Categories maps each ticket category to its allowed sub-categories.
var Categories = map[string][]string{
	"Hardware":     {"Computer", "Printer", "Projector", "Peripherals", "Other"},
	"Software":     {"Operating System", "Applications", "Accounts", "Other"},
	"Network":      {"Internet", "WiFi", "LAN", "Other"},
	"Electrical":   {"AC", "Lighting", "Wiring", "Power", "Other"},
	"Facilities":   {"Plumbing", "Furniture", "Cleaning", "Carpentry", "Painting", "Other"},
	"Security":     {"CCTV", "Access Control", "Other"},
	"Classroom AV": {"Projector", "Audio", "Display", "Other"},
	"Other":        {"Other"},
}

// ValidDepartment reports whether the department is in the closed list.
func ValidDepartment(dept string) bool {
	for _, d := range Departments {
		if d == dept {
			return true
		}
	}
	return false
}

// ValidCategoryPair reports whether the category exists and the sub-category
// belongs to it.
func ValidCategoryPair(category, subCategory string) bool {
	subs, ok := Categories[category]
	if !ok {
		return false
	}
	for _, s := range subs {
		if s == subCategory {
			return true
		}
	}
	return false
}
