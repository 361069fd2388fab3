package normalize

// merchantAlias maps an abbreviated or garbled token to a canonical merchant.
// Aliases are checked in order; the first whole-word hit wins.
type merchantAlias struct {
	abbrev    string
	canonical string
}

// defaultAliases covers the short forms that show up in real bank feeds.
var defaultAliases = []merchantAlias{
	{"amzn", "amazon"},
	{"fpt", "flipkart"},
	{"swg", "swiggy"},
	{"zmt", "zomato"},
	{"irctc", "irctc"},
	{"bpcl", "bharatpetrol"},
	{"ioc", "indianoil"},
	{"io", "indianoil"},
	{"bb", "bigbasket"},
	{"appl", "apple"},
	{"yt", "youtube"},
	{"bms", "bookmyshow"},
	{"pvr", "pvr cinemas"},
	{"mtx", "myntra"},
	{"rfr", "reliance fresh"},
	{"hdfc", "hdfc bank"},
}

// defaultMerchants is the closed vocabulary of known merchant names used as
// the fuzzy-match target space.
var defaultMerchants = []string{
	"amazon", "flipkart", "myntra", "ajio", "meesho",
	"swiggy", "zomato", "dominos", "starbucks",
	"irctc", "uber", "ola", "indianoil", "hp petrol", "bharatpetrol",
	"airindia", "indigo", "tneb", "airtel", "bsnl", "jio fiber",
	"apollo pharmacy", "1mg", "cult fit", "medplus",
	"netflix", "hotstar", "spotify", "bookmyshow",
	"youtube premium", "google one", "apple music", "canva pro",
	"bigbasket", "dunzo", "reliance fresh", "more supermarket",
}
