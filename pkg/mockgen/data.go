package mockgen

var firstNames = []string{
	"John", "Jane", "Bob", "Alice", "Charlie", "Diana", "Edward", "Fiona",
	"George", "Hannah", "Ivan", "Julia", "Kevin", "Laura", "Mike", "Nina",
}

var lastNames = []string{
	"Smith", "Doe", "Johnson", "Williams", "Brown", "Davis", "Miller", "Wilson",
	"Moore", "Taylor", "Anderson", "Thomas", "Jackson", "White", "Harris", "Martin",
}

var emailDomains = []string{"example.com", "test.com", "mock.io", "demo.org"}

var companies = []string{
	"Acme Corp", "Globex Inc", "Initech", "Umbrella Corp", "Stark Industries",
	"Wayne Enterprises", "Cyberdyne Systems", "Tyrell Corp",
}

var words = []string{
	"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "theta", "lambda",
	"sigma", "omega", "lorem", "ipsum", "dolor", "amet", "mock", "route",
}

var sentences = []string{
	"The quick brown fox jumps over the lazy dog.",
	"Lorem ipsum dolor sit amet.",
	"Everything is served from a mock route.",
	"Data refreshed without restarting the server.",
	"System status nominal.",
}

var colors = []string{
	"Crimson", "Azure", "Emerald", "Ivory", "Coral",
	"Indigo", "Amber", "Jade", "Scarlet", "Turquoise",
	"Lavender", "Maroon", "Teal", "Orchid", "Cyan",
}

var tlds = []string{"com", "net", "org", "io", "dev"}

var currencyCodes = []string{
	"USD", "EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY",
	"SEK", "NZD", "MXN", "SGD", "HKD", "NOK", "KRW", "INR",
}

var productAdjectives = []string{
	"Rustic", "Elegant", "Handcrafted", "Refined", "Sleek",
	"Practical", "Modern", "Vintage", "Premium", "Compact",
}

var productMaterials = []string{
	"Steel", "Wooden", "Granite", "Rubber", "Cotton",
	"Leather", "Bamboo", "Bronze", "Ceramic", "Titanium",
}

var productNouns = []string{
	"Chair", "Table", "Lamp", "Keyboard", "Mouse",
	"Backpack", "Watch", "Wallet", "Headphones", "Mug",
}

var jobLevels = []string{"Senior", "Junior", "Lead", "Principal", "Staff"}

var jobFields = []string{
	"Software", "Data", "Product", "Marketing", "Sales",
	"Operations", "Security", "Infrastructure", "Quality", "Research",
}

var jobRoles = []string{
	"Engineer", "Analyst", "Manager", "Designer", "Architect",
	"Consultant", "Developer", "Specialist", "Coordinator", "Strategist",
}

var mimeTypes = []string{
	"application/json", "application/xml", "application/pdf",
	"application/zip", "text/html", "text/plain", "text/csv",
	"image/png", "image/jpeg", "image/svg+xml", "video/mp4",
}
