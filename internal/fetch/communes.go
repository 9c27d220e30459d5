package fetch

// Commune couples a city label with its INSEE code.
type Commune struct {
	Name string
	Code string
}

// Communes is the default acquisition catalogue: the 20 largest French
// urban areas.
var Communes = []Commune{
	{"Paris", "75056"},
	{"Marseille", "13055"},
	{"Lyon", "69123"},
	{"Nice", "06088"},
	{"Toulouse", "31555"},
	{"Bordeaux", "33063"},
	{"Nantes", "44109"},
	{"Strasbourg", "67482"},
	{"Lille", "59350"},
	{"Montpellier", "34172"},
	{"Rennes", "35238"},
	{"Reims", "51454"},
	{"Grenoble", "38185"},
	{"Toulon", "83137"},
	{"Le Mans", "72181"},
	{"Rouen", "76540"},
	{"Limoges", "87085"},
	{"Angers", "49328"},
	{"Le Havre", "76600"},
	{"Avignon", "84007"},
}

// Arrondissements maps the INSEE code of a multi-district city to the codes
// of its arrondissements. The cadastre bundler serves these cities per
// district only; the merged commune collection is produced by the merge
// tool.
var Arrondissements = map[string][]string{
	// Paris, 20 arrondissements
	"75056": {
		"75101", "75102", "75103", "75104", "75105",
		"75106", "75107", "75108", "75109", "75110",
		"75111", "75112", "75113", "75114", "75115",
		"75116", "75117", "75118", "75119", "75120",
	},
	// Marseille, 16 arrondissements
	"13055": {
		"13201", "13202", "13203", "13204", "13205",
		"13206", "13207", "13208", "13209", "13210",
		"13211", "13212", "13213", "13214", "13215",
		"13216",
	},
	// Lyon, 9 arrondissements
	"69123": {
		"69381", "69382", "69383", "69384", "69385",
		"69386", "69387", "69388", "69389",
	},
}

// CommuneName returns the catalogue label for an INSEE code, or "".
func CommuneName(code string) string {
	for _, c := range Communes {
		if c.Code == code {
			return c.Name
		}
	}
	return ""
}
