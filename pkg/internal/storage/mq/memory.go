package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yeisme/filterbot/pkg/configs"
)

func init() {
	RegisterFactory(configs.MQTypeMemory, memoryFactory)
}

// memoryFactory 创建进程内 gochannel，单实例部署时使用.
func memoryFactory(
	_ context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	buffer := cfg.Memory.OutputBuffer
	if buffer <= 0 {
		buffer = configs.DefaultOutputBuffer
	}

	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: buffer,
		Persistent:          cfg.Memory.Persistent,
	}, logger)

	return ch, ch, nil
}
