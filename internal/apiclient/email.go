package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/metrics"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// LooksLikeEmail is the local format check.
func LooksLikeEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

type EmailCheck struct {
	FormatValid bool `json:"format_valid"`
	MXFound     bool `json:"mx_found"`
	SMTPCheck   bool `json:"smtp_check"`
}

func (c EmailCheck) Deliverable() bool {
	return c.FormatValid && c.MXFound && c.SMTPCheck
}

// EmailValidator queries an apilayer-compatible deliverability service.
type EmailValidator struct {
	URL       string
	AccessKey string
	HTTP      *http.Client
}

func NewEmailValidator(serviceURL, accessKey string, timeout time.Duration) *EmailValidator {
	return &EmailValidator{URL: serviceURL, AccessKey: accessKey, HTTP: &http.Client{Timeout: timeout}}
}

func (v *EmailValidator) Check(ctx context.Context, email string) (EmailCheck, error) {
	var out EmailCheck
	if v.URL == "" || v.AccessKey == "" {
		return out, fmt.Errorf("email validation service not configured")
	}

	q := url.Values{"access_key": {v.AccessKey}, "email": {email}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.URL+"?"+q.Encode(), nil)
	if err != nil {
		return out, err
	}

	start := time.Now()
	resp, err := v.HTTP.Do(req)
	if err != nil {
		metrics.RecordUpstream(http.MethodGet, "email-check", "network", time.Since(start))
		return out, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordUpstream(http.MethodGet, "email-check", "unknown", time.Since(start))
		return out, fmt.Errorf("email check: %s", resp.Status)
	}
	metrics.RecordUpstream(http.MethodGet, "email-check", "ok", time.Since(start))

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode email check: %w", err)
	}
	return out, nil
}

type EmailPolicyMode string

const (
	EmailStrict     EmailPolicyMode = "strict"
	EmailBestEffort EmailPolicyMode = "best-effort"
	EmailOff        EmailPolicyMode = "off"
)

func ParseEmailPolicyMode(s string) (EmailPolicyMode, error) {
	switch m := EmailPolicyMode(strings.ToLower(strings.TrimSpace(s))); m {
	case EmailStrict, EmailBestEffort, EmailOff:
		return m, nil
	case "":
		return EmailBestEffort, nil
	default:
		return "", fmt.Errorf("unknown email validation policy %q", s)
	}
}

// EmailPolicy decides whether an address is acceptable. The local format
// check always runs first. In strict mode a failing service rejects the
// address; in best-effort mode it is ignored.
type EmailPolicy struct {
	Mode      EmailPolicyMode
	Validator *EmailValidator
}

func (p *EmailPolicy) Validate(ctx context.Context, email string) error {
	if !LooksLikeEmail(email) {
		return Invalid("Please enter a valid email address!")
	}
	if p == nil || p.Mode == EmailOff || p.Validator == nil {
		return nil
	}

	check, err := p.Validator.Check(ctx, email)
	if err != nil {
		if p.Mode == EmailStrict {
			return &Error{Kind: KindNetwork, Message: "Could not verify email address. Please try again.", Err: err}
		}
		slog.Warn("Email validation service unavailable, using local check", "error", err)
		return nil
	}
	if !check.Deliverable() {
		return Invalid("Invalid or undeliverable email address!")
	}
	return nil
}
