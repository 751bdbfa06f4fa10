package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"tessera/internal/models"
)

// TestClient wraps the API for the integration suite. Every request carries
// the configured Basic Auth credentials.
type TestClient struct {
	BaseURL    string
	Username   string
	Password   string
	HTTPClient *http.Client
}

func NewTestClient(baseURL, username, password string) *TestClient {
	return &TestClient{
		BaseURL:  baseURL,
		Username: username,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.Username, c.Password)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

func (c *TestClient) doJSON(t *testing.T, method, path string, body interface{}, wantStatus int, out interface{}) {
	t.Helper()

	resp := c.makeRequest(t, method, path, body)
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		payload, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected status %d, got %d. Body: %s", method, path, wantStatus, resp.StatusCode, payload)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: failed to decode response: %v", method, path, err)
		}
	}
}

// statusOf returns the response status for calls where the test asserts on
// the code itself.
func (c *TestClient) statusOf(t *testing.T, method, path string, body interface{}) int {
	t.Helper()

	resp := c.makeRequest(t, method, path, body)
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

// CreateConcert creates a draft concert.
func (c *TestClient) CreateConcert(t *testing.T, title string) *models.Concert {
	var concert models.Concert
	c.doJSON(t, "POST", "/api/concerts", models.CreateConcertRequest{ConTitle: title}, http.StatusCreated, &concert)
	return &concert
}

// PublishConcert pushes a draft concert through submit and approval.
func (c *TestClient) PublishConcert(t *testing.T, concertID string) *models.Concert {
	var concert models.Concert
	c.doJSON(t, "PATCH", "/api/concerts/submit", models.SubmitConcertRequest{ConcertID: concertID}, http.StatusOK, &concert)
	c.doJSON(t, "PATCH", "/api/concerts/review", models.ReviewConcertRequest{ConcertID: concertID, Status: "approved"}, http.StatusOK, &concert)
	return &concert
}

// CreateTicketType creates a fully stocked ticket type.
func (c *TestClient) CreateTicketType(t *testing.T, concertID string, quantity int) *models.TicketType {
	var tt models.TicketType
	c.doJSON(t, "POST", "/api/ticket-types", models.CreateTicketTypeRequest{
		ConcertID:      concertID,
		TicketTypeName: fmt.Sprintf("GA %d", time.Now().UnixNano()),
		TotalQuantity:  quantity,
	}, http.StatusCreated, &tt)
	return &tt
}

// GetTicketType reads back a ticket type.
func (c *TestClient) GetTicketType(t *testing.T, id string) *models.TicketType {
	var tt models.TicketType
	c.doJSON(t, "GET", "/api/ticket-types/"+id, nil, http.StatusOK, &tt)
	return &tt
}

// Hold opens a hold on one ticket.
func (c *TestClient) Hold(t *testing.T, ticketTypeID string) *models.CreateHoldResponse {
	var hold models.CreateHoldResponse
	c.doJSON(t, "POST", "/api/orders/hold", models.CreateHoldRequest{TicketTypeID: ticketTypeID}, http.StatusCreated, &hold)
	return &hold
}

// Confirm pays for a held order.
func (c *TestClient) Confirm(t *testing.T, orderID, lockToken string) *models.Order {
	var order models.Order
	c.doJSON(t, "PATCH", "/api/orders/confirm", models.ConfirmOrderRequest{OrderID: orderID, LockToken: lockToken}, http.StatusOK, &order)
	return &order
}

// Cancel releases a held order.
func (c *TestClient) Cancel(t *testing.T, orderID string) *models.Order {
	var order models.Order
	c.doJSON(t, "PATCH", "/api/orders/cancel", models.CancelOrderRequest{OrderID: orderID}, http.StatusOK, &order)
	return &order
}

// GetOrder reads back an order.
func (c *TestClient) GetOrder(t *testing.T, orderID string) *models.Order {
	var order models.Order
	c.doJSON(t, "GET", "/api/orders/"+orderID, nil, http.StatusOK, &order)
	return &order
}
