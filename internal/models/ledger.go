package models

import "time"

// CreditLedgerEntry is an immutable, append-only accounting record.
// The ledger is the sole source of truth for a user's credit balance:
// BalanceAfter of the newest entry is the balance. Entries are never
// updated or deleted.
type CreditLedgerEntry struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	UserID       string    `gorm:"type:varchar(36);not null;index"`
	Amount       int       `gorm:"not null"`
	Type         string    `gorm:"type:varchar(20);not null"`
	ReferenceID  string    `gorm:"type:varchar(36);index"`
	BalanceAfter int       `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}
