// Package ratelimit implements a fixed-window request limiter with in-memory
// and Redis counter stores plus a chi-compatible HTTP middleware.
//
// Each key gets Limit requests per Window. The first hit opens the window;
// the counter expires with it.
//
//	limiter, err := ratelimit.NewFixedWindow(ratelimit.NewRedisStore(client, "billing"), 60, time.Minute)
//	if err != nil {
//		return err
//	}
//	r.Use(ratelimit.Middleware(limiter, ratelimit.ByIP()))
//
// The middleware fails open: a store error lets the request through.
package ratelimit
