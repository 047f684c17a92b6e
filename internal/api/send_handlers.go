package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/printcraft/personalization/internal/personalization"
	"github.com/printcraft/personalization/internal/pkg/logger"
	"github.com/printcraft/personalization/internal/sender"
	"github.com/printcraft/personalization/internal/templates"
)

// SendRequest delivers one personalized email. Content comes either from a
// stored template (template_id) or inline subject/body fields.
type SendRequest struct {
	CustomerID  string                                `json:"customer_id"`
	TemplateID  string                                `json:"template_id,omitempty"`
	Subject     string                                `json:"subject,omitempty"`
	HTMLContent string                                `json:"html_content,omitempty"`
	TextContent string                                `json:"text_content,omitempty"`
	Rules       []personalization.PersonalizationRule `json:"rules,omitempty"`
	UseLiquid   bool                                  `json:"use_liquid,omitempty"`
}

// SendResponse reports the delivery outcome.
type SendResponse struct {
	MessageID string `json:"message_id"`
	Recipient string `json:"recipient"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if s.sender == nil {
		writeError(w, http.StatusServiceUnavailable, "email delivery is not configured")
		return
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	customer, err := s.resolveCustomer(r, req.CustomerID, nil)
	if err == errCustomerNotFound {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	if err != nil {
		logger.Error("send: load customer failed", "customer_id", req.CustomerID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to load customer")
		return
	}
	if customer.Email == "" {
		writeError(w, http.StatusBadRequest, "customer has no email address")
		return
	}

	subject, htmlContent, textContent := req.Subject, req.HTMLContent, req.TextContent
	if req.TemplateID != "" {
		templateID, err := uuid.Parse(req.TemplateID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid template ID")
			return
		}
		tmpl, err := s.store.GetTemplate(r.Context(), templateID)
		if err != nil {
			logger.Error("send: load template failed", "template_id", req.TemplateID, "error", err.Error())
			writeError(w, http.StatusInternalServerError, "failed to load template")
			return
		}
		if tmpl == nil {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		subject, htmlContent, textContent = tmpl.Subject, tmpl.HTMLContent, tmpl.TextContent
	}
	if subject == "" || (htmlContent == "" && textContent == "") {
		writeError(w, http.StatusBadRequest, "subject and at least one body are required")
		return
	}

	engine := personalization.NewEngine(customer, req.Rules)

	htmlBody := ""
	if htmlContent != "" {
		if req.UseLiquid {
			htmlBody, err = s.liquid.Render(req.TemplateID, htmlContent, templates.CustomerBindings(customer))
			if err != nil {
				// Strict at send time: never deliver a half-rendered body.
				writeError(w, http.StatusUnprocessableEntity, "template rendering failed: "+err.Error())
				return
			}
		} else {
			htmlBody = engine.PersonalizeContent(htmlContent)
		}
	}
	textBody := ""
	if textContent != "" {
		textBody = engine.PersonalizeContent(textContent)
	}

	msg := sender.Message{
		To:       customer.Email,
		Subject:  engine.PersonalizeContent(subject),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	messageID, err := s.sender.Send(r.Context(), msg)
	if err != nil {
		logger.Error("send: delivery failed", "customer_id", req.CustomerID, "recipient", customer.Email, "error", err.Error())
		writeError(w, http.StatusBadGateway, "failed to send email")
		return
	}

	logger.Info("Email sent", "customer_id", req.CustomerID, "recipient", customer.Email, "message_id", messageID)
	writeJSON(w, http.StatusOK, SendResponse{MessageID: messageID, Recipient: customer.Email})
}
