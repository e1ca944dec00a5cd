/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the internal domain
  model from the external contract. Monetary amounts are serialized as
  decimal strings; dates as YYYY-MM-DD.

NAMING CONVENTION:
  - *DTO:     response types returned to clients
  - *Request: request body types from clients

VALIDATION:
  Structural validation (parse errors) happens in handlers; business
  validation lives in the booking and ledger services.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/harbor/stay-engine/ledger"
	"github.com/harbor/stay-engine/pms"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

type CreateHotelRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Currency string `json:"currency"`

	CGSTPercent          decimal.Decimal `json:"cgst_percent"`
	SGSTPercent          decimal.Decimal `json:"sgst_percent"`
	IGSTPercent          decimal.Decimal `json:"igst_percent"`
	ServiceChargePercent decimal.Decimal `json:"service_charge_percent"`
	LuxuryTaxPercent     decimal.Decimal `json:"luxury_tax_percent"`
}

type CreateRoomRequest struct {
	ID          string          `json:"id"`
	HotelID     string          `json:"hotel_id"`
	Number      string          `json:"number"`
	RoomType    string          `json:"room_type"`
	NightlyRate decimal.Decimal `json:"nightly_rate"`
}

type CreateGuestRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type RoomStatusRequest struct {
	Status string `json:"status"`
}

type CreateReservationRequest struct {
	HotelID     string          `json:"hotel_id"`
	GuestID     string          `json:"guest_id"`
	RoomID      string          `json:"room_id,omitempty"`
	RoomType    string          `json:"room_type,omitempty"`
	Arrival     string          `json:"arrival_date"`
	Departure   string          `json:"departure_date"`
	Adults      int             `json:"adults"`
	Children    int             `json:"children"`
	NightlyRate decimal.Decimal `json:"nightly_rate"`
	RatePlan    string          `json:"rate_plan"`
	Source      string          `json:"source"`
}

type UpdateReservationRequest struct {
	RoomID      *string          `json:"room_id,omitempty"`
	RoomType    *string          `json:"room_type,omitempty"`
	Arrival     *string          `json:"arrival_date,omitempty"`
	Departure   *string          `json:"departure_date,omitempty"`
	Adults      *int             `json:"adults,omitempty"`
	Children    *int             `json:"children,omitempty"`
	NightlyRate *decimal.Decimal `json:"nightly_rate,omitempty"`
	RatePlan    *string          `json:"rate_plan,omitempty"`
	Source      *string          `json:"source,omitempty"`
	Status      *string          `json:"status,omitempty"`
}

type AssignRoomRequest struct {
	RoomID string `json:"room_id"`
}

type CheckInRequest struct {
	RoomID string `json:"room_id,omitempty"`
}

type ExtraChargeRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type CheckOutRequest struct {
	LateCheckout bool                 `json:"late_checkout"`
	ExtraCharges []ExtraChargeRequest `json:"extra_charges,omitempty"`
}

type PostRoomChargesRequest struct {
	Nights    []string `json:"nights,omitempty"`
	FolioID   string   `json:"folio_id,omitempty"`
	FolioName string   `json:"folio_name,omitempty"`
}

type AddonChargeRequest struct {
	Description string            `json:"description"`
	Amount      decimal.Decimal   `json:"amount"`
	Quantity    int               `json:"quantity,omitempty"`
	FolioID     string            `json:"folio_id,omitempty"`
	FolioName   string            `json:"folio_name,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type PaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Mode      string          `json:"mode"`
	Reference string          `json:"reference,omitempty"`
	FolioID   string          `json:"folio_id,omitempty"`
	FolioName string          `json:"folio_name,omitempty"`
}

type SettleBillRequest struct {
	Payments []PaymentRequest `json:"payments"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type RoomDTO struct {
	ID          string `json:"id"`
	HotelID     string `json:"hotel_id"`
	Number      string `json:"number"`
	RoomType    string `json:"room_type"`
	Status      string `json:"status"`
	NightlyRate string `json:"nightly_rate"`
}

type SnapshotChargeDTO struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type BillingSnapshotDTO struct {
	Currency    string              `json:"currency"`
	TotalAmount string              `json:"total_amount"`
	BalanceDue  string              `json:"balance_due"`
	Charges     []SnapshotChargeDTO `json:"charges"`
}

type ReservationDTO struct {
	ID          string             `json:"id"`
	HotelID     string             `json:"hotel_id"`
	GuestID     string             `json:"guest_id"`
	RoomID      string             `json:"room_id,omitempty"`
	RoomType    string             `json:"room_type"`
	Arrival     string             `json:"arrival_date"`
	Departure   string             `json:"departure_date"`
	Nights      int                `json:"nights"`
	Adults      int                `json:"adults"`
	Children    int                `json:"children"`
	NightlyRate string             `json:"nightly_rate"`
	RatePlan    string             `json:"rate_plan"`
	Source      string             `json:"source"`
	Status      string             `json:"status"`
	Billing     BillingSnapshotDTO `json:"billing"`
	CheckInAt   string             `json:"check_in_at,omitempty"`
	CheckOutAt  string             `json:"check_out_at,omitempty"`
}

type FolioDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ChargeDTO struct {
	ID          string            `json:"id"`
	FolioID     string            `json:"folio_id"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Amount      string            `json:"amount"`
	TaxAmount   string            `json:"tax_amount"`
	TotalAmount string            `json:"total_amount"`
	PostedAt    string            `json:"posted_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type PaymentDTO struct {
	ID         string `json:"id"`
	FolioID    string `json:"folio_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Mode       string `json:"mode"`
	Reference  string `json:"reference,omitempty"`
	ReceivedAt string `json:"received_at"`
}

type TotalsDTO struct {
	SubTotal      string `json:"sub_total"`
	TaxTotal      string `json:"tax_total"`
	GrandTotal    string `json:"grand_total"`
	PaymentsTotal string `json:"payments_total"`
	BalanceDue    string `json:"balance_due"`
}

type BillSummaryDTO struct {
	BillID   string       `json:"bill_id,omitempty"`
	Currency string       `json:"currency"`
	Folios   []FolioDTO   `json:"folios"`
	Charges  []ChargeDTO  `json:"charges"`
	Payments []PaymentDTO `json:"payments"`
	Totals   TotalsDTO    `json:"totals"`
}

type SettlementDTO struct {
	Charges     []SnapshotChargeDTO `json:"charges"`
	LateFee     string              `json:"late_fee"`
	TotalAmount string              `json:"total_amount"`
	BalanceDue  string              `json:"balance_due"`
}

type CheckOutResponse struct {
	Reservation   ReservationDTO `json:"reservation"`
	Settlement    SettlementDTO  `json:"settlement"`
	Nights        int            `json:"nights"`
	LedgerBalance string         `json:"ledger_balance"`
}

type InvoiceDTO struct {
	Number        string       `json:"number"`
	GeneratedAt   string       `json:"generated_at"`
	HotelName     string       `json:"hotel_name"`
	HotelAddress  string       `json:"hotel_address,omitempty"`
	GuestName     string       `json:"guest_name,omitempty"`
	ReservationID string       `json:"reservation_id"`
	RoomType      string       `json:"room_type"`
	Arrival       string       `json:"arrival_date"`
	Departure     string       `json:"departure_date"`
	Nights        int          `json:"nights"`
	Currency      string       `json:"currency"`
	Folios        []FolioDTO   `json:"folios"`
	Charges       []ChargeDTO  `json:"charges"`
	Payments      []PaymentDTO `json:"payments"`
	Totals        TotalsDTO    `json:"totals"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toRoomDTO(r pms.Room) RoomDTO {
	return RoomDTO{
		ID:          string(r.ID),
		HotelID:     string(r.HotelID),
		Number:      r.Number,
		RoomType:    r.RoomType,
		Status:      string(r.Status),
		NightlyRate: r.NightlyRate.String(),
	}
}

func toSnapshotDTO(b pms.BillingSnapshot) BillingSnapshotDTO {
	dto := BillingSnapshotDTO{
		Currency:    b.Currency,
		TotalAmount: b.TotalAmount.String(),
		BalanceDue:  b.BalanceDue.String(),
		Charges:     []SnapshotChargeDTO{},
	}
	for _, c := range b.Charges {
		dto.Charges = append(dto.Charges, SnapshotChargeDTO{
			Description: c.Description,
			Amount:      c.Amount.String(),
		})
	}
	return dto
}

func toReservationDTO(r pms.Reservation) ReservationDTO {
	dto := ReservationDTO{
		ID:          string(r.ID),
		HotelID:     string(r.HotelID),
		GuestID:     string(r.GuestID),
		RoomID:      string(r.RoomID),
		RoomType:    r.RoomType,
		Arrival:     r.ArrivalDate.String(),
		Departure:   r.DepartureDate.String(),
		Nights:      r.Nights(),
		Adults:      r.Adults,
		Children:    r.Children,
		NightlyRate: r.NightlyRate.String(),
		RatePlan:    string(r.RatePlan),
		Source:      string(r.Source),
		Status:      string(r.Status),
		Billing:     toSnapshotDTO(r.Billing),
	}
	if r.CheckInAt != nil {
		dto.CheckInAt = r.CheckInAt.Format(time.RFC3339)
	}
	if r.CheckOutAt != nil {
		dto.CheckOutAt = r.CheckOutAt.Format(time.RFC3339)
	}
	return dto
}

func toChargeDTO(c pms.Charge) ChargeDTO {
	return ChargeDTO{
		ID:          string(c.ID),
		FolioID:     string(c.FolioID),
		Type:        string(c.Type),
		Description: c.Description,
		Amount:      c.Amount.String(),
		TaxAmount:   c.TaxAmount.String(),
		TotalAmount: c.TotalAmount.String(),
		PostedAt:    c.PostedAt.Format(time.RFC3339),
		Metadata:    c.Metadata,
	}
}

func toPaymentDTO(p pms.Payment) PaymentDTO {
	return PaymentDTO{
		ID:         string(p.ID),
		FolioID:    string(p.FolioID),
		Amount:     p.Amount.String(),
		Currency:   p.Currency,
		Mode:       string(p.Mode),
		Reference:  p.Reference,
		ReceivedAt: p.ReceivedAt.Format(time.RFC3339),
	}
}

func toTotalsDTO(t pms.BillTotals) TotalsDTO {
	return TotalsDTO{
		SubTotal:      t.SubTotal.String(),
		TaxTotal:      t.TaxTotal.String(),
		GrandTotal:    t.GrandTotal.String(),
		PaymentsTotal: t.PaymentsTotal.String(),
		BalanceDue:    t.BalanceDue.String(),
	}
}

func toBillSummaryDTO(s ledger.BillSummary) BillSummaryDTO {
	dto := BillSummaryDTO{
		BillID:   string(s.BillID),
		Currency: s.Currency,
		Folios:   []FolioDTO{},
		Charges:  []ChargeDTO{},
		Payments: []PaymentDTO{},
		Totals:   toTotalsDTO(s.Totals),
	}
	for _, f := range s.Folios {
		dto.Folios = append(dto.Folios, FolioDTO{ID: string(f.ID), Name: f.Name})
	}
	for _, c := range s.Charges {
		dto.Charges = append(dto.Charges, toChargeDTO(c))
	}
	for _, p := range s.Payments {
		dto.Payments = append(dto.Payments, toPaymentDTO(p))
	}
	return dto
}

func toSettlementDTO(s pms.Settlement) SettlementDTO {
	dto := SettlementDTO{
		Charges:     []SnapshotChargeDTO{},
		LateFee:     s.LateFee.String(),
		TotalAmount: s.TotalAmount.String(),
		BalanceDue:  s.BalanceDue.String(),
	}
	for _, c := range s.Charges {
		dto.Charges = append(dto.Charges, SnapshotChargeDTO{
			Description: c.Description,
			Amount:      c.Amount.String(),
		})
	}
	return dto
}

func toInvoiceDTO(inv ledger.Invoice) InvoiceDTO {
	dto := InvoiceDTO{
		Number:        inv.Number,
		GeneratedAt:   inv.GeneratedAt.Format(time.RFC3339),
		HotelName:     inv.Hotel.Name,
		HotelAddress:  inv.Hotel.Address,
		ReservationID: string(inv.ReservationID),
		RoomType:      inv.RoomType,
		Arrival:       inv.ArrivalDate.String(),
		Departure:     inv.DepartureDate.String(),
		Nights:        inv.Nights,
		Currency:      inv.Currency,
		Folios:        []FolioDTO{},
		Charges:       []ChargeDTO{},
		Payments:      []PaymentDTO{},
		Totals:        toTotalsDTO(inv.Totals),
	}
	if inv.Guest != nil {
		dto.GuestName = inv.Guest.Name
	}
	for _, f := range inv.Folios {
		dto.Folios = append(dto.Folios, FolioDTO{ID: string(f.ID), Name: f.Name})
	}
	for _, c := range inv.Charges {
		dto.Charges = append(dto.Charges, toChargeDTO(c))
	}
	for _, p := range inv.Payments {
		dto.Payments = append(dto.Payments, toPaymentDTO(p))
	}
	return dto
}
