package core

import "time"

// PartyCategory is the role a customer plays on a shipment.
type PartyCategory string

const (
	PartyShipper   PartyCategory = "Shipper"
	PartyConsignee PartyCategory = "Consignee"
	PartyNotify    PartyCategory = "Notify"
	PartyDebtor    PartyCategory = "Debtor"
	PartyCreditor  PartyCategory = "Creditor"
	PartyNeutral   PartyCategory = "Neutral"
	PartyAgent     PartyCategory = "Agent"
)

func (c PartyCategory) IsValid() bool {
	switch c {
	case PartyShipper, PartyConsignee, PartyNotify, PartyDebtor, PartyCreditor, PartyNeutral, PartyAgent:
		return true
	}
	return false
}

// Party links a customer to a shipment under one category.
// (ShipmentID, CustomerID, Category) is unique.
type Party struct {
	ID           int           `json:"id"`
	ShipmentID   int           `json:"shipment_id"`
	CustomerID   int           `json:"customer_id"`
	CustomerCode string        `json:"customer_code"` // joined from customers
	CustomerName string        `json:"customer_name"` // joined from customers
	Category     PartyCategory `json:"category"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Customer is the master record read for party identity, credit days and statements.
type Customer struct {
	ID         int    `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	CreditDays int    `json:"credit_days"`
	IsActive   bool   `json:"is_active"`
}
