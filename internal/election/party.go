package election

// Party：政党资料，RepresentativeColor 为地图着色
type Party struct {
	CNFullName          string
	CNShortName         string
	ENFullName          string
	ENShortName         string
	RepresentativeColor string
}

// 政党代码
const (
	PartyKMT      = "KMT"
	PartyDPP      = "DPP"
	PartyTPP      = "TPP"
	PartyPFP      = "PFP"
	PartyNP       = "NP"
	PartyPetition = "PETITION"
	PartyEmpty    = "EMPTY"
)

// Parties：政党表；未列出代表色的政党不着色
var Parties = map[string]Party{
	PartyKMT:      {"中國國民黨", "國民黨", "Kuomintang Chinese Nationalist Party", "KMT", "#8082FF"},
	PartyDPP:      {"民主進步黨", "民進黨", "Democratic Progressive Party", "DPP", "#57D2A9"},
	PartyTPP:      {"台灣民眾黨", "民眾黨", "Taiwan People's Party", "TPP", "#F4A76F"},
	PartyPFP:      {"親民黨", "親民黨", "People First Party", "PFP", "#F4A76F"},
	PartyNP:       {"新黨", "新黨", "New Party", "NP", ""},
	PartyPetition: {"連署", "", "Petition", "PETITION", ""},
	PartyEmpty:    {"無黨籍及未經政黨推薦", "", "Empty", "EMPTY", ""},
}

// PartyColor：政党代表色，未知政党为空串
func PartyColor(code string) string { return Parties[code].RepresentativeColor }
