// Package rabbitmq publishes billing events to a RabbitMQ topic exchange.
//
// Messages are persistent JSON. Consumers bind queues to routing keys such as
// "subscription.*" or "subscription.past_due".
package rabbitmq
