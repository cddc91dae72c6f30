package validation

// Currencies accepted in amount-bearing parameters.
var Currencies = []string{
	"usd", "aed", "afn", "all", "amd", "ang", "aoa", "ars", "aud", "awg",
	"azn", "bam", "bbd", "bdt", "bgn", "bif", "bmd", "bnd", "bob", "brl",
	"bsd", "bwp", "bzd", "cad", "cdf", "chf", "clp", "cny", "cop", "crc",
	"cve", "czk", "djf", "dkk", "dop", "dzd", "egp", "etb", "eur", "fjd",
	"fkp", "gbp", "gel", "gip", "gmd", "gnf", "gtq", "gyd", "hkd", "hnl",
	"hrk", "htg", "huf", "idr", "ils", "inr", "isk", "jmd", "jpy", "kes",
	"kgs", "khr", "kmf", "krw", "kyd", "kzt", "lak", "lbp", "lkr", "lrd",
	"lsl", "mad", "mdl", "mga", "mkd", "mmk", "mnt", "mop", "mro", "mur",
	"mvr", "mwk", "mxn", "myr", "mzn", "nad", "ngn", "nio", "nok", "npr",
	"nzd", "pab", "pen", "pgk", "php", "pkr", "pln", "pyg", "qar", "ron",
	"rsd", "rub", "rwf", "sar", "sbd", "scr", "sek", "sgd", "shp", "sll",
	"sos", "srd", "std", "szl", "thb", "tjs", "top", "try", "ttd", "twd",
	"tzs", "uah", "ugx", "uyu", "uzs", "vnd", "vuv", "wst", "xaf", "xcd",
	"xof", "xpf", "yer", "zar", "zmw",
}

// minimumAmounts are the known per-currency charge floors, in minor units.
var minimumAmounts = map[string]int64{
	"usd": 50,
	"aed": 200,
	"aud": 50,
	"brl": 50,
	"cad": 50,
	"chf": 50,
	"czk": 1500,
	"dkk": 250,
	"eur": 50,
	"gbp": 30,
	"hkd": 400,
	"huf": 17500,
	"inr": 50,
	"jpy": 50,
	"mxn": 1000,
	"myr": 200,
	"nok": 300,
	"nzd": 50,
	"pln": 200,
	"ron": 200,
	"sek": 300,
	"sgd": 50,
	"thb": 1000,
}

var zeroDecimal = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {}, "kmf": {}, "krw": {}, "mga": {},
	"pyg": {}, "rwf": {}, "ugx": {}, "vnd": {}, "vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}
