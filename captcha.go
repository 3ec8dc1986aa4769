package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultHCaptchaVerifyURL = "https://hcaptcha.com/siteverify"

var ErrVerificationUnavailable = errors.New("verification service unavailable")

// Verifier decides whether a connection may be admitted. An error means the
// answer is unknown and the connection is refused.
type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

type VerifierFunc func(ctx context.Context, token string) (bool, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (bool, error) {
	return f(ctx, token)
}

type HCaptcha struct {
	secret    string
	verifyURL string
	client    *http.Client
}

func NewHCaptcha(secret, verifyURL string, client *http.Client) *HCaptcha {
	if verifyURL == "" {
		verifyURL = defaultHCaptchaVerifyURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HCaptcha{secret, verifyURL, client}
}

type hCaptchaResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func (h *HCaptcha) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	form := url.Values{"response": {token}, "secret": {h.secret}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	res, err := h.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: status %d", ErrVerificationUnavailable, res.StatusCode)
	}
	var parsed hCaptchaResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	return parsed.Success, nil
}
