package httptransport

import (
	"time"

	"foodtrust/internal/audit"
	"foodtrust/internal/domain"
)

// RegisterProductRequest is the registration payload from manufacturer
// tooling. ManufacturedAt is RFC 3339; the registry stores it as given and
// applies no clock policy.
type RegisterProductRequest struct {
	ProductID      string    `json:"product_id"`
	Name           string    `json:"name"`
	Ingredients    string    `json:"ingredients"`
	Manufacturer   string    `json:"manufacturer"`
	ManufacturedAt time.Time `json:"manufactured_at"`
}

// TokenRequest exchanges manufacturer credentials for an access token.
type TokenRequest struct {
	ManufacturerID string `json:"manufacturer_id"`
	Secret         string `json:"secret"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ProductResponse is the public shape of a registered product.
type ProductResponse struct {
	ProductID      string    `json:"product_id"`
	Name           string    `json:"name"`
	Ingredients    string    `json:"ingredients"`
	Manufacturer   string    `json:"manufacturer"`
	ManufacturedAt time.Time `json:"manufactured_at"`
	RegisteredAt   time.Time `json:"registered_at"`
}

func toProductResponse(record domain.ProductRecord) ProductResponse {
	return ProductResponse{
		ProductID:      record.ID.String(),
		Name:           record.Name,
		Ingredients:    record.Ingredients,
		Manufacturer:   record.Manufacturer,
		ManufacturedAt: record.ManufacturedAt,
		RegisteredAt:   record.RegisteredAt,
	}
}

// AuthenticResponse answers the lightweight point-of-sale check.
type AuthenticResponse struct {
	ProductID string `json:"product_id"`
	Authentic bool   `json:"authentic"`
}

// EventResponse is the public shape of one audit log entry.
type EventResponse struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Action       string    `json:"action"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Manufacturer string    `json:"manufacturer"`
	RequestID    string    `json:"request_id,omitempty"`
	ActorID      string    `json:"actor_id,omitempty"`
}

func toEventResponses(events []audit.Event) []EventResponse {
	responses := make([]EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, EventResponse{
			ID:           event.ID.String(),
			Timestamp:    event.Timestamp,
			Action:       string(event.Action),
			ProductID:    event.ProductID,
			ProductName:  event.ProductName,
			Manufacturer: event.Manufacturer,
			RequestID:    event.RequestID,
			ActorID:      event.ActorID,
		})
	}
	return responses
}
