// Package requestid tags each request with a correlation id.
//
// A valid client-supplied X-Request-ID is reused; anything else is replaced
// with a fresh UUIDv7. The id is echoed in the response, stored in the
// request context, and added to log records by LoggerExtractor.
package requestid
