package core

import (
	"context"
	"time"
)

// ObserveOperation emits one structured log line per operation with outcome
// and duration fields, so every reconcile/fulfillment/automation step leaves
// the same audit shape.
func ObserveOperation(
	ctx context.Context,
	logger Logger,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if logger == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}

	contextFields := cloneFields(fields)
	contextFields["operation"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = time.Since(startedAt).Milliseconds()
	if err != nil {
		contextFields["error"] = err.Error()
	}

	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(contextFields)
	}

	args := flattenFields(contextFields)
	if err != nil {
		logger.Error(operation+" failed", args...)
		return
	}
	logger.Info(operation+" succeeded", args...)
}

func cloneFields(fields map[string]any) map[string]any {
	cloned := make(map[string]any, len(fields)+4)
	for key, value := range fields {
		cloned[key] = value
	}
	return cloned
}

func flattenFields(fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2)
	for key, value := range fields {
		args = append(args, key, value)
	}
	return args
}
