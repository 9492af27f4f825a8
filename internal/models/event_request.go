package models

import (
	"time"
)

type EventRequest struct {
	ID          int       `json:"id"`
	CustomerID  int       `json:"customerId"`
	ProviderID  int       `json:"providerId"`
	CategoryID  int       `json:"categoryId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventDate   time.Time `json:"eventDate"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateEventRequest struct {
	ProviderID  int       `json:"providerId" validate:"required,gt=0"`
	CategoryID  int       `json:"categoryId" validate:"required,gt=0"`
	Title       string    `json:"title" validate:"required,min=5,max=100"`
	Description string    `json:"description" validate:"required,min=20,max=1000"`
	EventDate   time.Time `json:"eventDate" validate:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// RequestEvent is pushed to connected parties when a request changes.
type RequestEvent struct {
	Type    string       `json:"type"`
	Request EventRequest `json:"request"`
	At      time.Time    `json:"at"`
}

const (
	EventRequestCreated       = "request.created"
	EventRequestStatusChanged = "request.status_changed"
)
