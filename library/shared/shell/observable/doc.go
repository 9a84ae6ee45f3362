// Package observable provides generic decorators that add metrics, tracing and logging to any
// shell.CommandHandler or shell.QueryHandler without the handlers knowing about it.
package observable
