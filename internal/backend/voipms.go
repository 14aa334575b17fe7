package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"smsrelay/internal/domain"
)

const voipmsBaseURL = "https://voip.ms/api/v1/rest.php"

// VoipMS sends and receives SMS through the VoIP.ms REST API. Incoming
// messages are deleted from the provider as they are returned, so each is
// delivered exactly once.
type VoipMS struct {
	username string
	password string
	did      string
	baseURL  string
	client   *http.Client
	logger   *slog.Logger
}

// NewVoipMS builds the transport from backend args: username, password
// and did are required; url optionally overrides the API endpoint.
// Connectivity is verified before the transport is returned.
func NewVoipMS(args map[string]string, logger *slog.Logger) (*VoipMS, error) {
	v := &VoipMS{
		baseURL: voipmsBaseURL,
		client:  sharedHTTPClient(30 * time.Second),
		logger:  logger,
	}
	for key, value := range args {
		switch key {
		case "username":
			v.username = value
		case "password":
			v.password = value
		case "did":
			v.did = value
		case "url":
			v.baseURL = value
		default:
			return nil, fmt.Errorf("invalid argument: %s", key)
		}
	}
	if v.username == "" || v.password == "" || v.did == "" {
		return nil, fmt.Errorf("username, password and did arguments are required")
	}
	if err := v.Ping(context.Background()); err != nil {
		return nil, err
	}
	return v, nil
}

type voipmsResponse struct {
	Status string `json:"status"`
	SMS    []struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Contact string `json:"contact"`
		Message string `json:"message"`
	} `json:"sms"`
}

// request performs one API call. When expect is non-empty, a differing
// response status is an error.
func (v *VoipMS) request(ctx context.Context, method, expect string, params url.Values) (*voipmsResponse, error) {
	q := url.Values{}
	q.Set("api_username", v.username)
	q.Set("api_password", v.password)
	q.Set("method", method)
	q.Set("content_type", "json")
	for key, values := range params {
		for _, value := range values {
			q.Add(key, value)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	var result voipmsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if expect != "" && result.Status != expect {
		return nil, fmt.Errorf("unexpected status: %s", result.Status)
	}
	return &result, nil
}

// Ping confirms connectivity to the API server.
func (v *VoipMS) Ping(ctx context.Context) error {
	_, err := v.request(ctx, "getIP", "success", nil)
	return err
}

func (v *VoipMS) Send(ctx context.Context, number string, text string) error {
	dst, err := e164ToNA(number)
	if err != nil {
		return err
	}
	params := url.Values{}
	params.Set("did", v.did)
	params.Set("dst", dst)
	params.Set("message", text)
	_, err = v.request(ctx, "sendSMS", "success", params)
	return err
}

func (v *VoipMS) Receive(ctx context.Context) ([]domain.Message, error) {
	params := url.Values{}
	params.Set("did", v.did)
	resp, err := v.request(ctx, "getSMS", "", params)
	if err != nil {
		return nil, err
	}
	switch resp.Status {
	case "no_sms":
		return nil, nil
	case "success":
	default:
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var messages []domain.Message
	for _, sms := range resp.SMS {
		ack := url.Values{}
		ack.Set("id", sms.ID)
		if _, err := v.request(ctx, "deleteSMS", "success", ack); err != nil {
			return messages, err
		}
		if sms.Type != "1" { // "1" marks incoming
			continue
		}
		number, err := naToE164(sms.Contact)
		if err != nil {
			v.logger.Warn("dropping message with malformed contact", "contact", sms.Contact)
			continue
		}
		messages = append(messages, domain.Message{Number: number, Text: sms.Message})
	}
	return messages, nil
}

// e164ToNA converts an E.164 number to a ten-digit North American number.
func e164ToNA(number string) (string, error) {
	if len(number) != 12 || number[:2] != "+1" || !allDigits(number[2:]) {
		return "", fmt.Errorf("invalid number: %s", number)
	}
	return number[2:], nil
}

// naToE164 converts a ten-digit North American number to E.164.
func naToE164(number string) (string, error) {
	if len(number) != 10 || !allDigits(number) {
		return "", fmt.Errorf("invalid number: %s", number)
	}
	return "+1" + number, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
