// shared/redis/constants.go
package redis

// Leaderboard keys share the {lb} hash tag so a record can be written in one
// transaction on a cluster.
const (
	NicknameCounterKey = "{lb}:pnum:%s"     // INCR counter numbering a nickname: {lb}:pnum:<nickname>
	PlayerKey          = "{lb}:player:%s"   // Hash with token and best game: {lb}:player:<full nickname>
	TokenKey           = "{lb}:token:%s"    // Full nickname owning a token: {lb}:token:<token>
	LeaderboardKey     = "{lb}:leaderboard" // Sorted set of full nicknames by best score
	RecentGamesKey     = "{lb}:games:%s"    // List of msgpack game records, newest first: {lb}:games:<full nickname>
)

// Fields of the player hash.
const (
	FieldNickname = "nickname"
	FieldToken    = "token"
	FieldBest     = "best"
)
