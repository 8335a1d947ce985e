// game/core/catalog.go
package core

import "github.com/Ftotnem/AIRCARGO-SERVICES/game/geo"

// AirportInfo is a static airport definition. FuelPrice is the base price per
// liter before the game's price factor is applied.
type AirportInfo struct {
	Name        string
	FullName    string
	Description string
	Coordinates geo.Coordinates
	Elevation   float64 // km
	FuelPrice   float64
}

var Airports = []AirportInfo{
	{"DUBAI (DXB)", "Dubai International Airport", "Desert hub with cheap fuel and endless transfers.", geo.Coordinates{Lat: 25.252777, Lon: 55.364445}, 0.019, 1.1},
	{"PARIS (CDG)", "Paris Charles de Gaulle Airport", "Busy European gateway north of Paris.", geo.Coordinates{Lat: 49.009724, Lon: 2.547778}, 0.119, 2.4},
	{"HONG KONG (HKG)", "Hong Kong International Airport", "Cargo giant built on a reclaimed island.", geo.Coordinates{Lat: 22.308046, Lon: 113.918480}, 0.009, 2.0},
	{"ANCHORAGE (ANC)", "Ted Stevens Anchorage International Airport", "Polar refuelling stop between Asia and America.", geo.Coordinates{Lat: 61.171519, Lon: -149.990777}, 0.046, 1.6},
	{"SHANGHAI (PVG)", "Shanghai Pudong International Airport", "Coastal mega-airport on the Yangtze delta.", geo.Coordinates{Lat: 31.143333, Lon: 121.805275}, 0.004, 1.9},
	{"MIAMI (MIA)", "Miami International Airport", "Door to Latin America, humid and crowded.", geo.Coordinates{Lat: 25.7933, Lon: -80.2906}, 0.002, 2.1},
	{"LOS ANGELES (LAX)", "Los Angeles International Airport", "Pacific coast hub under permanent sunshine.", geo.Coordinates{Lat: 33.942791, Lon: -118.410042}, 0.038, 2.3},
	{"SIDNEY (SYD)", "Sydney Kingsford Smith Airport", "Runways reaching into Botany Bay.", geo.Coordinates{Lat: -33.937573, Lon: 151.167234}, 0.006, 2.2},
	{"MUMBAI (BOM)", "Chhatrapati Shivaji Maharaj International Airport", "Packed subcontinental hub by the Arabian Sea.", geo.Coordinates{Lat: 19.097403, Lon: 72.874245}, 0.011, 1.5},
	{"JOHANNESBURG (JNB)", "O. R. Tambo International Airport", "High-altitude gateway to southern Africa.", geo.Coordinates{Lat: -26.134789, Lon: 28.240528}, 1.694, 1.8},
	{"HONOLULU (HNL)", "Daniel K. Inouye International Airport", "Lonely island stop in the middle of the Pacific.", geo.Coordinates{Lat: 21.321714, Lon: -157.918407}, 0.004, 2.9},
	{"TORONTO (YYZ)", "Toronto Pearson International Airport", "Canada's busiest field, snow ploughs included.", geo.Coordinates{Lat: 43.676667, Lon: -79.630556}, 0.173, 2.0},
	{"BOGOTA (BOG)", "El Dorado International Airport", "Andean plateau airport with thin air.", geo.Coordinates{Lat: 4.701389, Lon: -74.146944}, 2.548, 1.7},
	{"SAO PAULO (GRU)", "Sao Paulo Guarulhos International Airport", "Largest hub of South America.", geo.Coordinates{Lat: -23.435556, Lon: -46.473056}, 0.750, 1.9},
	{"LAGOS (LOS)", "Murtala Muhammed International Airport", "West African trade gateway.", geo.Coordinates{Lat: 6.577222, Lon: 3.321111}, 0.041, 1.4},
	{"SINGAPORE (SIN)", "Singapore Changi Airport", "Equatorial hub with a garden in the terminal.", geo.Coordinates{Lat: 1.359167, Lon: 103.989444}, 0.007, 2.2},
	{"VOSTOK STATION (AT28)", "Vostok Station Skiway", "Ice runway at the coldest place on Earth. Fuel is flown in.", geo.Coordinates{Lat: -78.466139, Lon: 106.84825}, 3.488, 4.5},
}

// NewAirports instantiates the catalogue with prices multiplied by priceFactor.
func NewAirports(priceFactor float64) []*Airport {
	out := make([]*Airport, 0, len(Airports))
	for _, info := range Airports {
		out = append(out, NewAirport(info.Name, info.FullName, info.Description, info.Coordinates, info.Elevation, info.FuelPrice*priceFactor))
	}
	return out
}

var ShipmentNames = []string{
	"Mail",
	"Aliexpress Garbage",
	"Masks & Vaccines",
	"Overpriced GPUs",
	"Futomaki",
	"Drones",
	"HAZMAT",
}

var BotNames = []string{
	"Maverick", "Goose", "Iceman", "Viper", "Jester", "Hollywood",
	"Wolfman", "Merlin", "Slider", "Cougar", "Stinger", "Sundown",
	"Chipper", "Hondo", "Rooster", "Hangman", "Phoenix", "Bob",
	"Payback", "Fanboy", "Coyote", "Warlock",
}

var Colors = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#bcf60c", "#fabebe", "#008080", "#e6beff",
	"#9a6324", "#fffac8", "#800000", "#aaffc3", "#808000", "#ffd8b1",
	"#000075", "#808080", "#ffffff", "#a9a9a9",
}
