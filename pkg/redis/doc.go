// Package redis connects to Redis with retries and exposes a readiness probe.
//
// The billing service uses the returned client for two things: the
// redisstore subscription backend and the shared rate limiter store.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	probe := redis.Healthcheck(client)
package redis
