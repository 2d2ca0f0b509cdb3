package contract

import "errors"

var (
	// ErrInvalidRecord marks a malformed customer record reaching the policy
	// engine. Fatal to that call, not to the session.
	ErrInvalidRecord = errors.New("invalid customer record")

	ErrCustomerNotFound = errors.New("customer not found")

	// ErrUnknownTool and ErrInvalidToolArguments cover model requests outside
	// the registry contract. They surface inside ToolResult.Error and are fed
	// back to the model, never to the customer.
	ErrUnknownTool          = errors.New("unknown tool")
	ErrInvalidToolArguments = errors.New("invalid tool arguments")

	// ErrCollaboratorUnavailable is returned once the bounded retry against
	// the model call or a store is exhausted.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrLoggingFailure marks a failed or partial transcript write. The
	// session still ends.
	ErrLoggingFailure = errors.New("transcript logging failed")

	ErrValidation      = errors.New("validation failed")
	ErrSchemaViolation = errors.New("model response violates schema")
)
