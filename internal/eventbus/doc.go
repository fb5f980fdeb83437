// Package eventbus delivers asset change events to the registry's outbound
// integrations.
//
// Queue decouples request handling from delivery: Publish enqueues and
// returns, a single goroutine delivers in order. Fanout sends one event to
// many sinks. The sinks adapt events for MQTT, Redis Streams, InfluxDB and
// websocket clients.
//
//	fan := eventbus.NewFanout(
//	    eventbus.NewMQTTSink(mqttClient, mqttClient.Topics(), mqttClient.QoS()),
//	    eventbus.NewRedisSink(redisClient),
//	)
//	queue := eventbus.NewQueue(fan, logger)
//	go queue.Run(ctx)
//	service.SetEventSink(queue)
package eventbus
