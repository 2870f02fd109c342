// Package logger provides structured logging for the flowkit engine
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("launcher")
//	log.Info("task completed", logger.Fields("task_id", run.ID, "exit_code", run.ExitCode))
package logger
