package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	AgentErrorBadInput          = "AGENT_BAD_INPUT"
	AgentErrorUnauthorized      = "AGENT_UNAUTHORIZED"
	AgentErrorNotFound          = "AGENT_NOT_FOUND"
	AgentErrorConflict          = "AGENT_CONFLICT"
	AgentErrorGatewayUnknown    = "AGENT_GATEWAY_UNKNOWN"
	AgentErrorFulfillmentFailed = "AGENT_FULFILLMENT_FAILED"
	AgentErrorInternal          = "AGENT_INTERNAL_ERROR"
)

// MapError lifts arbitrary errors into the rich envelope the HTTP layer
// relies on for status codes. Already-rich errors only get defaults filled.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureAgentErrorEnvelope(richErr)
	}

	switch {
	case goerrors.Is(err, ErrOrderNotFound),
		goerrors.Is(err, ErrSubscriptionNotFound),
		goerrors.Is(err, ErrProductNotFound):
		return newAgentError(err.Error(), goerrors.CategoryNotFound, AgentErrorNotFound)
	case goerrors.Is(err, ErrDuplicateOrder):
		return newAgentError(err.Error(), goerrors.CategoryConflict, AgentErrorConflict)
	case goerrors.Is(err, ErrInvalidGateway):
		return newAgentError(err.Error(), goerrors.CategoryBadInput, AgentErrorGatewayUnknown)
	case goerrors.Is(err, ErrInvalidOrderStatusTransition),
		goerrors.Is(err, ErrInvalidFulfillmentKind),
		goerrors.Is(err, ErrInvalidAutomationRunStatus):
		return newAgentError(err.Error(), goerrors.CategoryBadInput, AgentErrorBadInput)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "signature"):
		return newAgentError(err.Error(), goerrors.CategoryAuth, AgentErrorUnauthorized)
	case strings.Contains(msg, "not found"):
		return newAgentError(err.Error(), goerrors.CategoryNotFound, AgentErrorNotFound)
	case strings.Contains(msg, "unique constraint failed"),
		strings.Contains(msg, "duplicate key value violates unique constraint"):
		return newAgentError(err.Error(), goerrors.CategoryConflict, AgentErrorConflict)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newAgentError(err.Error(), goerrors.CategoryBadInput, AgentErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureAgentErrorEnvelope(mapped)
}

func newAgentError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureAgentErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureAgentErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = agentHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultAgentTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultAgentTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return AgentErrorBadInput
	case goerrors.CategoryNotFound:
		return AgentErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return AgentErrorUnauthorized
	case goerrors.CategoryConflict:
		return AgentErrorConflict
	default:
		return AgentErrorInternal
	}
}

func agentHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
