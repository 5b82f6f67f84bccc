// Package environment carries the deployment environment through
// configuration, request contexts and structured logs.
package environment
