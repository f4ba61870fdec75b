package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"

	"github.com/playothello/othello-api"
)

// TestEmailRequest is the request body for the test-email endpoint.
type TestEmailRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// sendEmail delivers one plain-text message through the configured SMTP
// relay.
func sendEmail(cfg *Config, to, subject, body string) error {
	if cfg.SMTPHost == "" {
		return othello.Validationf("SMTP is not configured")
	}

	from := cfg.SMTPUsername
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(msg)); err != nil {
		return othello.Internal("could not send email", err)
	}
	return nil
}

// @Summary Send a test email
// @Description Admin-only delivery check for the configured SMTP relay
// @Tags email
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param email body TestEmailRequest true "Recipient and content"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/email/send-test-email [post]
func sendTestEmailHandler(w http.ResponseWriter, r *http.Request) {
	var req TestEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, othello.Validationf("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, r, validationError(err))
		return
	}

	if req.Subject == "" {
		req.Subject = "Othello API test email"
	}
	if req.Body == "" {
		req.Body = "This is a test email from the Othello API."
	}

	if err := sendEmail(cfg, req.To, req.Subject, req.Body); err != nil {
		respondError(w, r, err)
		return
	}

	log.Infow("test email sent", "to", req.To)
	respondJSON(w, http.StatusOK, MessageResponse{Message: "test email sent to " + req.To})
}
