package handlers

import "net/http"

// Operation is what a task request resolves to
type Operation int

const (
	OperationList Operation = iota
	OperationGet
	OperationCreate
	OperationUpdate
	OperationDelete
)

func (o Operation) String() string {
	switch o {
	case OperationGet:
		return "get"
	case OperationCreate:
		return "create"
	case OperationUpdate:
		return "update"
	case OperationDelete:
		return "delete"
	default:
		return "list"
	}
}

// ResolveOperation maps an (instance present, method) pair onto a task
// operation. POST always creates, with or without an instance ID, and any
// combination not listed falls back to list.
func ResolveOperation(hasID bool, method string) Operation {
	switch {
	case hasID && method == http.MethodGet:
		return OperationGet
	case hasID && method == http.MethodPut:
		return OperationUpdate
	case hasID && method == http.MethodDelete:
		return OperationDelete
	case method == http.MethodPost:
		return OperationCreate
	default:
		return OperationList
	}
}
