package acuity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://acuityscheduling.com/api/v1"

// Client talks to the Acuity Scheduling REST API with HTTP Basic auth.
type Client struct {
	BaseURL string
	UserID  string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(userID, apiKey string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		UserID:  userID,
		APIKey:  apiKey,
		HTTP: &http.Client{
			Timeout: 25 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.UserID, c.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(resp)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError maps Acuity's error payload onto APIError, recognising the
// intake-field rejections so callers can strip the fields and retry once.
func (c *Client) decodeError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		payload.Message = strings.TrimSpace(string(b))
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Code:       payload.Error,
		Message:    payload.Message,
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		switch payload.Error {
		case "required_field", "invalid_field", "invalid_field_id":
			return fmt.Errorf("%w: %s", ErrInvalidIntakeFields, payload.Message)
		}
	}

	return apiErr
}

func (c *Client) ListAppointmentTypes(ctx context.Context) ([]AppointmentType, error) {
	var out []AppointmentType
	err := c.do(ctx, http.MethodGet, "/appointment-types", nil, nil, &out)
	return out, err
}

func (c *Client) ListCalendars(ctx context.Context) ([]Calendar, error) {
	var out []Calendar
	err := c.do(ctx, http.MethodGet, "/calendars", nil, nil, &out)
	return out, err
}

// ListAvailabilityDates lists bookable dates in a month (YYYY-MM).
func (c *Client) ListAvailabilityDates(ctx context.Context, appointmentTypeID int, month string, calendarID int) ([]AvailabilityDate, error) {
	q := url.Values{}
	q.Set("appointmentTypeID", fmt.Sprintf("%d", appointmentTypeID))
	q.Set("month", month)
	if calendarID > 0 {
		q.Set("calendarID", fmt.Sprintf("%d", calendarID))
	}

	var out []AvailabilityDate
	err := c.do(ctx, http.MethodGet, "/availability/dates", q, nil, &out)
	return out, err
}

// ListAvailabilityTimes lists bookable slots on a date (YYYY-MM-DD).
func (c *Client) ListAvailabilityTimes(ctx context.Context, appointmentTypeID int, date string, calendarID int) ([]AvailabilityTime, error) {
	q := url.Values{}
	q.Set("appointmentTypeID", fmt.Sprintf("%d", appointmentTypeID))
	q.Set("date", date)
	if calendarID > 0 {
		q.Set("calendarID", fmt.Sprintf("%d", calendarID))
	}

	var out []AvailabilityTime
	err := c.do(ctx, http.MethodGet, "/availability/times", q, nil, &out)
	return out, err
}

func (c *Client) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*Appointment, error) {
	var out Appointment
	if err := c.do(ctx, http.MethodPost, "/appointments", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelAppointment(ctx context.Context, appointmentID int64) (*Appointment, error) {
	var out Appointment
	path := fmt.Sprintf("/appointments/%d/cancel", appointmentID)
	if err := c.do(ctx, http.MethodPut, path, nil, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAppointments fetches appointments, optionally filtered by client email
// and a date range (YYYY-MM-DD on both ends).
func (c *Client) ListAppointments(ctx context.Context, email, minDate, maxDate string) ([]Appointment, error) {
	q := url.Values{}
	q.Set("max", "300")
	if email != "" {
		q.Set("email", email)
	}
	if minDate != "" {
		q.Set("minDate", minDate)
	}
	if maxDate != "" {
		q.Set("maxDate", maxDate)
	}

	var out []Appointment
	err := c.do(ctx, http.MethodGet, "/appointments", q, nil, &out)
	return out, err
}

// ListCertificates fetches prepaid certificates, optionally for one email.
func (c *Client) ListCertificates(ctx context.Context, email string) ([]Certificate, error) {
	q := url.Values{}
	if email != "" {
		q.Set("email", email)
	}

	var out []Certificate
	err := c.do(ctx, http.MethodGet, "/certificates", q, nil, &out)
	return out, err
}
