// Package api holds the JSON contract shared by the HTTP server and its clients.
package api

import "time"

// Todo is the wire representation of a todo item.
type Todo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateTodoRequest holds the data needed to create a new todo.
type CreateTodoRequest struct {
	Title string `json:"title"`
}

// UpdateTodoRequest holds the data for a partial update.
// Pointers distinguish a field being omitted from a field set to its zero
// value, so {"isCompleted": false} is applied and {} changes nothing.
type UpdateTodoRequest struct {
	Title       *string `json:"title,omitempty"`
	IsCompleted *bool   `json:"isCompleted,omitempty"`
}

// SuccessResponse wraps every successful payload.
type SuccessResponse[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// ErrorDetail carries the status and a human-readable message.
type ErrorDetail struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse wraps every failure.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// NewSuccess builds a success envelope around data.
func NewSuccess[T any](data T) SuccessResponse[T] {
	return SuccessResponse[T]{Success: true, Data: data}
}

// NewError builds a failure envelope.
func NewError(status int, message string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error:   ErrorDetail{Status: status, Message: message},
	}
}

// String and Bool return pointers for building UpdateTodoRequest values.
func String(s string) *string { return &s }

func Bool(b bool) *bool { return &b }
