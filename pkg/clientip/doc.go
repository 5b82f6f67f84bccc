// Package clientip resolves the caller's IP address behind common proxies.
// It is used to key the webhook rate limit and to tag log records.
package clientip
