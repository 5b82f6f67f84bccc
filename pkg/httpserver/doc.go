// Package httpserver runs the billing HTTP API with graceful shutdown and a
// JSON health endpoint.
//
//	srv := httpserver.New(cfg, router,
//		httpserver.WithLogger(log),
//		httpserver.WithShutdownHook(publisher.Close),
//	)
//	if err := srv.Run(ctx); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
package httpserver
