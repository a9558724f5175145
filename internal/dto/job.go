package dto

import (
	"encoding/json"
	"time"
)

type JobCreateDTO struct {
	UserID    string          `json:"user_id" validate:"required"`
	Type      string          `json:"type" validate:"required"`
	InputData json.RawMessage `json:"input_data" validate:"required"`
}

type JobResponseDTO struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Type            string          `json:"type"`
	InputData       json.RawMessage `json:"input_data"`
	Status          string          `json:"status"`
	Progress        int             `json:"progress"`
	OutputData      json.RawMessage `json:"output_data,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	CreditsReserved int             `json:"credits_reserved"`
	CreditsCharged  int             `json:"credits_charged"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type BalanceResponseDTO struct {
	UserID  string `json:"user_id"`
	Balance int    `json:"balance"`
}

type LedgerEntryDTO struct {
	UserID       string    `json:"user_id"`
	Amount       int       `json:"amount"`
	Type         string    `json:"type"`
	ReferenceID  string    `json:"reference_id,omitempty"`
	BalanceAfter int       `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}
