package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     baseURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// RecipientState describes where an invite recipient stands, which changes
// the instructions they receive.
type RecipientState int

const (
	RecipientNew          RecipientState = iota // no account yet
	RecipientNoHousehold                        // has an account, no household
	RecipientHasHousehold                       // has an account and a household
)

// SendInvite emails an invitation to join the inviter's household. The
// household ID doubles as the join identifier the recipient enters after
// signing in.
func (c *Client) SendInvite(ctx context.Context, toEmail, inviterName, householdName, householdID string, state RecipientState) error {
	subject := fmt.Sprintf("%s invited you to join %s on Hearth", inviterName, householdName)

	var instructions string
	switch state {
	case RecipientHasHousehold:
		instructions = fmt.Sprintf(
			"If you wish to join this household, you must first leave your current one, then enter the following identifier on the Join Household page: %s",
			householdID,
		)
	case RecipientNoHousehold:
		instructions = fmt.Sprintf(
			"To become a member of this household, simply sign in and enter the following identifier on the Join Household page: %s",
			householdID,
		)
	default:
		instructions = fmt.Sprintf(
			"To become a member of this household, simply create an account and enter the following identifier on the Join Household page: %s",
			householdID,
		)
	}

	textBody := fmt.Sprintf(
		"Greetings,\n\n%s has invited you to join the \"%s\" household on Hearth.\n\n%s\n\nAccess the application at %s\n\nKind Regards,\n\nHearth",
		inviterName, householdName, instructions, c.baseURL,
	)
	htmlBody := fmt.Sprintf(
		`<p>Greetings,</p><p>%s has invited you to join the <strong>%s</strong> household on Hearth.</p><p>%s</p><p>Access the application at <a href="%s">%s</a></p><p>Kind Regards,</p><p>Hearth</p>`,
		inviterName, householdName, instructions, c.baseURL, c.baseURL,
	)
	return c.send(ctx, toEmail, subject, textBody, htmlBody)
}

// SendWelcome emails a new user a notice that an account was created with
// their address.
func (c *Client) SendWelcome(ctx context.Context, toEmail, name string) error {
	subject := "New Hearth Account"
	textBody := fmt.Sprintf(
		"Greetings %s,\n\nThis is an email to notify you that a Hearth account has been created using your email address.\n\nLogin to your account at %s\n\nEnjoy the application!",
		name, c.baseURL,
	)
	htmlBody := fmt.Sprintf(
		`<p>Greetings %s,</p><p>This is an email to notify you that a Hearth account has been created using your email address.</p><p>Login to your account at <a href="%s">%s</a></p><p>Enjoy the application!</p>`,
		name, c.baseURL, c.baseURL,
	)
	return c.send(ctx, toEmail, subject, textBody, htmlBody)
}

// send posts to the Postmark API, retrying transient failures with backoff.
func (c *Client) send(ctx context.Context, toEmail, subject, textBody, htmlBody string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, "POST", "https://api.postmarkapp.com/email", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Postmark-Server-Token", c.serverToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("send email: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("postmark API error: status %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
		}
		return nil
	})
}
