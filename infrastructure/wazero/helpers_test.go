package wazero

import "github.com/middle-dev/middle-sdk/domain/entities"

func defaultHostConfig() entities.HostConfig {
	return entities.DefaultHostConfig()
}
