// Package client is the Go client of the TradeGuard API. Authenticated
// calls take the Session explicitly; nothing is read from ambient state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tradeguard/platform/services/consignment-service/compliance"
	"github.com/tradeguard/platform/services/consignment-service/intake"
	"github.com/tradeguard/platform/services/consignment-service/shipment"
	"github.com/tradeguard/platform/shared/contracts"
)

// APIError is a non-2xx answer.
type APIError struct {
	Status  int
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("api: %d %s", e.Status, e.Message)
	}
	parts := make([]string, 0, len(e.Details))
	for k, v := range e.Details {
		parts = append(parts, k+": "+v)
	}
	return fmt.Sprintf("api: %d %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type Client struct {
	Base string
	HTTP *http.Client
}

// New returns a client for base, e.g. http://127.0.0.1:5000.
func New(base string) *Client {
	return &Client{
		Base: strings.TrimRight(base, "/"),
		HTTP: &http.Client{Timeout: 30 * time.Second},
	}
}

// Profile is the user record returned at login.
type Profile struct {
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phoneNumber"`
	CompanyName    string    `json:"companyName"`
	UserRole       string    `json:"userRole"`
	RegNumber      string    `json:"regNumber"`
	PrimaryCountry string    `json:"primaryCountry"`
	ShippingVolume string    `json:"shippingVolume"`
	CreatedAt      time.Time `json:"created_at"`
}

// Session is the authentication context of every protected call.
type Session struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	Profile   Profile   `json:"profile"`
	CreatedAt time.Time `json:"created_at"`
}

func (s Session) authorization() string { return "Bearer " + s.Token }

// Login exchanges credentials for a Session.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var resp struct {
		Token  string    `json:"token"`
		UserID uuid.UUID `json:"user_id"`
		Profile
	}
	in := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/users/authenticate", "", in, &resp); err != nil {
		return Session{}, err
	}
	return Session{
		Token:     resp.Token,
		UserID:    resp.UserID,
		Profile:   resp.Profile,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Registration is the body of /users/register.
type Registration struct {
	FirstName      string `json:"firstName" yaml:"firstName"`
	LastName       string `json:"lastName" yaml:"lastName"`
	Email          string `json:"email" yaml:"email"`
	PhoneNumber    string `json:"phoneNumber" yaml:"phoneNumber"`
	CompanyName    string `json:"companyName" yaml:"companyName"`
	UserRole       string `json:"userRole" yaml:"userRole"`
	CompanyType    string `json:"companyType,omitempty" yaml:"companyType"`
	RegNumber      string `json:"regNumber" yaml:"regNumber"`
	PrimaryCountry string `json:"primaryCountry" yaml:"primaryCountry"`
	ShippingVolume string `json:"shippingVolume,omitempty" yaml:"shippingVolume"`
	Password       string `json:"password" yaml:"password"`
}

// Register creates an account and returns its id.
func (c *Client) Register(ctx context.Context, r Registration) (string, error) {
	var resp struct {
		UserID string `json:"user_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/users/register", "", r, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// Submit posts a consignment as multipart form data.
func (c *Client) Submit(ctx context.Context, sess Session, s intake.Submission) (intake.SubmitResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range s.Fields() {
		if err := mw.WriteField(name, value); err != nil {
			return intake.SubmitResult{}, err
		}
	}
	if doc := s.CommercialInvoice; doc != nil {
		name := doc.Name
		if name == "" {
			name = "commercial_invoice.pdf"
		}
		fw, err := mw.CreateFormFile(intake.FieldCommercialInvoice, name)
		if err != nil {
			return intake.SubmitResult{}, err
		}
		if _, err := fw.Write(doc.Data); err != nil {
			return intake.SubmitResult{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return intake.SubmitResult{}, err
	}

	var out intake.SubmitResult
	err := c.do(ctx, http.MethodPost, "/consignment/add-consignment", sess.authorization(),
		mw.FormDataContentType(), &buf, func(r io.Reader) error {
			return json.NewDecoder(r).Decode(&out)
		})
	return out, err
}

// ResolveHSCode asks the catalog for the code of a category pair.
func (c *Client) ResolveHSCode(ctx context.Context, sess Session, mainCategory, subCategory string, destination shipment.Country) (string, error) {
	in := map[string]string{
		"main_category":       mainCategory,
		"sub_category":        subCategory,
		"destination_country": string(destination),
	}
	var code string
	err := c.doJSON(ctx, http.MethodPost, "/consignment/search-hs-code", sess.authorization(), in, &code)
	return code, err
}

// ListConsignments returns every consignment, newest first. None is an
// empty list, not an error.
func (c *Client) ListConsignments(ctx context.Context, sess Session) ([]contracts.Consignment, error) {
	var out []contracts.Consignment
	err := c.doJSON(ctx, http.MethodGet, "/consignment/fetch-consignments", sess.authorization(), nil, &out)
	if StatusOf(err) == http.StatusNotFound {
		return []contracts.Consignment{}, nil
	}
	return out, err
}

func (c *Client) GetConsignment(ctx context.Context, sess Session, id uuid.UUID) (contracts.Consignment, error) {
	var out contracts.Consignment
	err := c.doJSON(ctx, http.MethodGet, "/consignment/fetch-consignment/"+url.PathEscape(id.String()), sess.authorization(), nil, &out)
	return out, err
}

// CheckCompliance scores a payload server side without storing it.
func (c *Client) CheckCompliance(ctx context.Context, sess Session, p shipment.FormPayload) (compliance.Result, error) {
	var out compliance.Result
	err := c.doJSON(ctx, http.MethodPost, "/consignment/compliance-check", sess.authorization(), p, &out)
	return out, err
}

// Report downloads the printable HTML report of a stored consignment.
func (c *Client) Report(ctx context.Context, sess Session, id uuid.UUID) ([]byte, error) {
	var page []byte
	err := c.do(ctx, http.MethodGet, "/consignment/report/"+url.PathEscape(id.String()), sess.authorization(), "", nil,
		func(r io.Reader) error {
			var err error
			page, err = io.ReadAll(r)
			return err
		})
	return page, err
}

func (c *Client) doJSON(ctx context.Context, method, path, auth string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body, contentType = buf, "application/json"
	}
	return c.do(ctx, method, path, auth, contentType, body, func(r io.Reader) error {
		if out == nil {
			return nil
		}
		return json.NewDecoder(r).Decode(out)
	})
}

func (c *Client) do(ctx context.Context, method, path, auth, contentType string, body io.Reader, read func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
		return apiErr
	}
	return read(resp.Body)
}
