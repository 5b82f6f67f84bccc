// Package logger builds *slog.Logger instances with functional options and
// injects request-scoped values from context.Context into every record.
//
// New wraps a JSON or text handler in LogHandlerDecorator, which runs the
// registered ContextExtractor callbacks (request id, user id, environment)
// on each Handle call. Attribute helpers in attr.go keep key names consistent
// across packages:
//
//	log := logger.New(
//	    logger.WithEnvironment(environment.Production, "billing"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "subscription canceled",
//	    logger.UserID(userID),
//	    logger.Plan("MONTH"),
//	    logger.Error(err), // dropped when err is nil
//	)
package logger
