package produce

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Produce struct {
	StorageService *StorageService
}

func InitProduce(channel *amqp.Channel) (*Produce, error) {
	storageService, err := InitStorageService(channel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Storage produce service: %w", err)
	}

	return &Produce{
		StorageService: storageService,
	}, nil
}
