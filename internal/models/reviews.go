package models

import (
	"time"
)

type Review struct {
	ID         int       `json:"id"`
	CustomerID int       `json:"customerId"`
	ProviderID int       `json:"providerId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CreateReviewRequest struct {
	ProviderID int    `json:"providerId" validate:"required,gt=0"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment" validate:"required,min=10,max=500"`
}

// RatingAggregate is the recomputed provider summary after a review insert.
type RatingAggregate struct {
	Average float64 `json:"rating"`
	Count   int     `json:"reviewCount"`
}
