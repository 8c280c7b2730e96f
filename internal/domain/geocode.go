package domain

// GeocodeResult is a resolved address
type GeocodeResult struct {
	Query           string  `json:"query"`
	ResolvedQuery   string  `json:"resolved_query"`
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	ResolvedAddress string  `json:"resolved_address"`
}

// Place is a single hit from the local search API
type Place struct {
	Title       string `json:"title"`
	Address     string `json:"address"`
	RoadAddress string `json:"roadAddress"`
	MapX        string `json:"mapx"`
	MapY        string `json:"mapy"`
}
