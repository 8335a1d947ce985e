// shared/registry/constants.go
package registry

const (
	// RedisRegistryHashPrefix prefixes the hash holding one service type's
	// instances, keyed by instance id: "services:<serviceType>".
	RedisRegistryHashPrefix = "services:"

	// GameServiceType is the registry type of game server instances.
	GameServiceType = "game-service"
)
