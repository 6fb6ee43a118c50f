// Package logger provides structured logging for nodegraph using zerolog.
//
// Two kinds of loggers exist. Component loggers write to stdout/stderr and are
// configured once per process:
//
//	logger.Init(logger.Config{Level: "debug", Format: "console"})
//	log := logger.Get("graph")
//	log.Info("graph loaded", logger.Fields("nodes", 12))
//
// Capture loggers write into an in-memory Capture so every node can keep its
// own evaluation log, readable later through Node.Logs:
//
//	capture := logger.NewCapture()
//	log := logger.NewCaptured(capture, "debug", "sum")
package logger
