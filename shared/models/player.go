package models

// LeaderboardPlayer is a persistent leaderboard account. Nickname is the full
// nickname ("name:N") handed out on registration.
type LeaderboardPlayer struct {
	Nickname string    `json:"nickname"`
	Token    string    `json:"-"`
	Rank     int64     `json:"rank,omitempty"`
	BestGame *BestGame `json:"best_game"` // nil until the first recorded game
}

// BestGame is the highest scoring game of a player.
type BestGame struct {
	Score              int   `json:"score" bson:"score"`
	ShipmentsDelivered int   `json:"delivered_shipments" bson:"delivered_shipments"`
	TimeAlive          int64 `json:"time_alive" bson:"time_alive"` // ms
	Timestamp          int64 `json:"timestamp" bson:"timestamp"`   // unix ms
}

// GameRecord is the outcome of one finished game.
type GameRecord struct {
	Nickname           string `json:"nickname" msgpack:"nickname" bson:"nickname"`
	Timestamp          int64  `json:"timestamp" msgpack:"timestamp" bson:"timestamp"`
	Score              int    `json:"score" msgpack:"score" bson:"score"`
	ShipmentsDelivered int    `json:"delivered_shipments" msgpack:"delivered_shipments" bson:"delivered_shipments"`
	TimeAlive          int64  `json:"time_alive" msgpack:"time_alive" bson:"time_alive"`
	DeathCause         string `json:"death_cause" msgpack:"death_cause" bson:"death_cause"`
}

// Best converts the record into the best-game summary it would replace.
func (r GameRecord) Best() *BestGame {
	return &BestGame{
		Score:              r.Score,
		ShipmentsDelivered: r.ShipmentsDelivered,
		TimeAlive:          r.TimeAlive,
		Timestamp:          r.Timestamp,
	}
}

// PlayerPage is one page of the leaderboard ordered by best score.
type PlayerPage struct {
	Total   int64               `json:"total"`
	Results []LeaderboardPlayer `json:"results"`
}
