package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"tessera/internal/models"
)

// SmokeValidator exercises the running API end to end: concert lifecycle,
// ticket type creation, and the full hold, confirm, refund order flow,
// including the error responses the state machines must return.
type SmokeValidator struct {
	baseURL  string
	username string
	password string
}

func NewSmokeValidator(baseURL, username, password string) *SmokeValidator {
	return &SmokeValidator{baseURL: baseURL, username: username, password: password}
}

// ValidateAll runs every check against a live server. The credentials must
// belong to an admin account so the review endpoints are reachable.
func (v *SmokeValidator) ValidateAll() error {
	log.Println("Starting API smoke validation...")

	if err := v.validateHealth(); err != nil {
		return fmt.Errorf("health validation failed: %w", err)
	}

	concertID, err := v.validateConcertLifecycle()
	if err != nil {
		return fmt.Errorf("concert validation failed: %w", err)
	}

	ticketTypeID, err := v.validateTicketTypes(concertID)
	if err != nil {
		return fmt.Errorf("ticket type validation failed: %w", err)
	}

	if err := v.validateOrderFlow(ticketTypeID); err != nil {
		return fmt.Errorf("order validation failed: %w", err)
	}

	log.Println("All endpoints validated successfully")
	return nil
}

func (v *SmokeValidator) validateHealth() error {
	log.Println("Checking health endpoint...")

	resp, err := http.Get(v.baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /health: expected 200, got %d", resp.StatusCode)
	}
	return nil
}

func (v *SmokeValidator) validateConcertLifecycle() (string, error) {
	log.Println("Checking concert endpoints...")

	var concert models.Concert
	if err := v.do("POST", "/api/concerts", models.CreateConcertRequest{
		ConTitle: "Smoke Test Concert",
	}, http.StatusCreated, &concert); err != nil {
		return "", err
	}
	if concert.ID == "" {
		return "", fmt.Errorf("POST /api/concerts: expected non-empty id")
	}
	if concert.ConInfoStatus != models.ConcertDraft {
		return "", fmt.Errorf("POST /api/concerts: expected draft status, got %s", concert.ConInfoStatus)
	}

	if err := v.do("PATCH", "/api/concerts/submit", models.SubmitConcertRequest{
		ConcertID: concert.ID,
	}, http.StatusOK, &concert); err != nil {
		return "", err
	}
	if concert.ConInfoStatus != models.ConcertReviewing {
		return "", fmt.Errorf("PATCH /api/concerts/submit: expected reviewing status, got %s", concert.ConInfoStatus)
	}

	if err := v.do("PATCH", "/api/concerts/review", models.ReviewConcertRequest{
		ConcertID: concert.ID,
		Status:    "approved",
	}, http.StatusOK, &concert); err != nil {
		return "", err
	}
	if concert.ConInfoStatus != models.ConcertPublished {
		return "", fmt.Errorf("PATCH /api/concerts/review: expected published status, got %s", concert.ConInfoStatus)
	}

	// a second review decision must be rejected
	if err := v.do("PATCH", "/api/concerts/review", models.ReviewConcertRequest{
		ConcertID: concert.ID,
		Status:    "approved",
	}, http.StatusConflict, nil); err != nil {
		return "", err
	}

	log.Println("Concert endpoints valid")
	return concert.ID, nil
}

func (v *SmokeValidator) validateTicketTypes(concertID string) (string, error) {
	log.Println("Checking ticket type endpoints...")

	var tt models.TicketType
	if err := v.do("POST", "/api/ticket-types", models.CreateTicketTypeRequest{
		ConcertID:      concertID,
		TicketTypeName: "Smoke GA",
		TotalQuantity:  10,
	}, http.StatusCreated, &tt); err != nil {
		return "", err
	}
	if tt.RemainingQuantity != 10 {
		return "", fmt.Errorf("POST /api/ticket-types: expected remaining 10, got %d", tt.RemainingQuantity)
	}

	var list []models.TicketType
	if err := v.do("GET", "/api/ticket-types?concert_id="+concertID, nil, http.StatusOK, &list); err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", fmt.Errorf("GET /api/ticket-types: expected non-empty list")
	}

	log.Println("Ticket type endpoints valid")
	return tt.ID, nil
}

func (v *SmokeValidator) validateOrderFlow(ticketTypeID string) error {
	log.Println("Checking order endpoints...")

	var hold models.CreateHoldResponse
	if err := v.do("POST", "/api/orders/hold", models.CreateHoldRequest{
		TicketTypeID: ticketTypeID,
	}, http.StatusCreated, &hold); err != nil {
		return err
	}
	if hold.LockToken == "" {
		return fmt.Errorf("POST /api/orders/hold: expected non-empty lock token")
	}

	// wrong token is forbidden
	if err := v.do("PATCH", "/api/orders/confirm", models.ConfirmOrderRequest{
		OrderID:   hold.OrderID,
		LockToken: "bogus-token",
	}, http.StatusForbidden, nil); err != nil {
		return err
	}

	var extended models.CreateHoldResponse
	if err := v.do("PATCH", "/api/orders/extend", models.ConfirmOrderRequest{
		OrderID:   hold.OrderID,
		LockToken: hold.LockToken,
	}, http.StatusOK, &extended); err != nil {
		return err
	}
	if extended.LockToken == hold.LockToken {
		return fmt.Errorf("PATCH /api/orders/extend: expected a fresh lock token")
	}

	var order models.Order
	if err := v.do("PATCH", "/api/orders/confirm", models.ConfirmOrderRequest{
		OrderID:   hold.OrderID,
		LockToken: extended.LockToken,
	}, http.StatusOK, &order); err != nil {
		return err
	}
	if order.OrderStatus != models.OrderPaid {
		return fmt.Errorf("PATCH /api/orders/confirm: expected paid status, got %s", order.OrderStatus)
	}

	// confirming twice is a conflict
	if err := v.do("PATCH", "/api/orders/confirm", models.ConfirmOrderRequest{
		OrderID:   hold.OrderID,
		LockToken: extended.LockToken,
	}, http.StatusConflict, nil); err != nil {
		return err
	}

	if err := v.do("PATCH", "/api/orders/refund", models.RefundOrderRequest{
		OrderID: hold.OrderID,
	}, http.StatusOK, &order); err != nil {
		return err
	}
	if order.OrderStatus != models.OrderRefunded {
		return fmt.Errorf("PATCH /api/orders/refund: expected refunded status, got %s", order.OrderStatus)
	}

	log.Println("Order endpoints valid")
	return nil
}

func (v *SmokeValidator) do(method, path string, body interface{}, wantStatus int, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, v.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(v.username, v.password)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: expected %d, got %d (%s)", method, path, wantStatus, resp.StatusCode, payload)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
		}
	}
	return nil
}
