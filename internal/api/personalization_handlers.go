package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/printcraft/personalization/internal/personalization"
	"github.com/printcraft/personalization/internal/pkg/logger"
	"github.com/printcraft/personalization/internal/templates"
)

// PreviewRequest asks for a template preview. Exactly one customer source
// applies: a stored customer_id, an inline customer record, or the built-in
// sample customer when both are absent.
type PreviewRequest struct {
	Subject     string                                         `json:"subject,omitempty"`
	HTMLContent string                                         `json:"html_content,omitempty"`
	TextContent string                                         `json:"text_content,omitempty"`
	CustomerID  string                                         `json:"customer_id,omitempty"`
	Customer    *personalization.CustomerPersonalizationData   `json:"customer,omitempty"`
	Rules       []personalization.PersonalizationRule          `json:"rules,omitempty"`
	// UseLiquid renders the HTML body through the Liquid engine instead of
	// the {{token}} substitution engine.
	UseLiquid bool `json:"use_liquid,omitempty"`
}

// PreviewResponse carries the personalized output.
type PreviewResponse struct {
	RenderedSubject string `json:"rendered_subject,omitempty"`
	RenderedHTML    string `json:"rendered_html,omitempty"`
	RenderedText    string `json:"rendered_text,omitempty"`
	PreviewText     string `json:"preview_text"`
	Success         bool   `json:"success"`
	Warning         string `json:"warning,omitempty"`
}

// handleGetVariables returns the static token and filter catalogs.
func (s *Server) handleGetVariables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"variables": personalization.AvailableVariables(),
		"filters":   templates.AvailableFilters(),
	})
}

// resolveCustomer picks the customer record for a preview/send request.
func (s *Server) resolveCustomer(r *http.Request, customerID string, inline *personalization.CustomerPersonalizationData) (personalization.CustomerPersonalizationData, error) {
	if inline != nil {
		return *inline, nil
	}
	if customerID != "" {
		c, err := s.store.GetCustomer(r.Context(), customerID)
		if err != nil {
			return personalization.CustomerPersonalizationData{}, err
		}
		if c == nil {
			return personalization.CustomerPersonalizationData{}, errCustomerNotFound
		}
		return *c, nil
	}
	return sampleCustomer(), nil
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	customer, err := s.resolveCustomer(r, req.CustomerID, req.Customer)
	if err == errCustomerNotFound {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	if err != nil {
		logger.Error("preview: load customer failed", "customer_id", req.CustomerID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to load customer")
		return
	}

	engine := personalization.NewEngine(customer, req.Rules)
	resp := PreviewResponse{
		Success:     true,
		PreviewText: engine.GeneratePreviewText(),
	}

	if req.Subject != "" {
		resp.RenderedSubject = engine.PersonalizeContent(req.Subject)
	}

	if req.HTMLContent != "" {
		cacheContent := previewCacheContent(req)
		if cached, ok := s.cache.GetPreview(r.Context(), customer.ID, cacheContent); ok {
			resp.RenderedHTML = cached
		} else if req.UseLiquid {
			out, err := s.liquid.Render("", req.HTMLContent, templates.CustomerBindings(customer))
			if err != nil {
				// Lax behavior for previews: keep the original body, surface
				// the parse problem as a warning.
				resp.Success = false
				resp.Warning = err.Error()
			}
			resp.RenderedHTML = out
			if err == nil {
				s.cache.SetPreview(r.Context(), customer.ID, cacheContent, out)
			}
		} else {
			resp.RenderedHTML = engine.PersonalizeContent(req.HTMLContent)
			s.cache.SetPreview(r.Context(), customer.ID, cacheContent, resp.RenderedHTML)
		}
	}

	if req.TextContent != "" {
		resp.RenderedText = engine.PersonalizeContent(req.TextContent)
	}

	writeJSON(w, http.StatusOK, resp)
}

// previewCacheContent folds every input the rendered HTML depends on into
// the string the cache hashes: the body itself, the engine choice, and the
// rule list. Two requests share a cache entry only when they would render
// identically.
func previewCacheContent(req PreviewRequest) string {
	if !req.UseLiquid && len(req.Rules) == 0 {
		return req.HTMLContent
	}
	var b strings.Builder
	b.WriteString(req.HTMLContent)
	if req.UseLiquid {
		b.WriteString("\x00liquid")
	}
	if len(req.Rules) > 0 {
		data, _ := json.Marshal(req.Rules)
		b.WriteString("\x00")
		b.Write(data)
	}
	return b.String()
}

// ValidateRequest asks which tokens a template references.
type ValidateRequest struct {
	Subject     string `json:"subject,omitempty"`
	HTMLContent string `json:"html_content,omitempty"`
}

// ValidateResponse lists referenced tokens and flags unknown ones. Unknown
// tokens are warnings, not errors: rules can bind them at send time.
type ValidateResponse struct {
	Valid     bool     `json:"valid"`
	Variables []string `json:"variables"`
	Unknown   []string `json:"unknown,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp := ValidateResponse{Valid: true, Variables: []string{}}

	builtin := make(map[string]bool)
	for _, info := range personalization.AvailableVariables() {
		builtin[info.Variable] = true
	}

	seen := make(map[string]bool)
	for _, content := range []string{req.Subject, req.HTMLContent} {
		for _, token := range personalization.ExtractVariables(content) {
			if seen[token] {
				continue
			}
			seen[token] = true
			resp.Variables = append(resp.Variables, token)
			if !builtin[token] {
				resp.Unknown = append(resp.Unknown, token)
			}
		}
	}

	// HTML bodies may also be Liquid templates; surface syntax errors here.
	if req.HTMLContent != "" {
		if err := s.liquid.Parse(req.HTMLContent); err != nil {
			resp.Valid = false
			resp.Errors = append(resp.Errors, err.Error())
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// sampleCustomer is the stand-in record for previews with no customer
// selected.
func sampleCustomer() personalization.CustomerPersonalizationData {
	lastOrder := time.Now().AddDate(0, -1, 0)
	return personalization.CustomerPersonalizationData{
		ID:             "sample",
		Email:          "jane.doe@example.com",
		FirstName:      "Jane",
		LastName:       "Doe",
		Company:        "Acme Corporation",
		TotalOrders:    12,
		TotalSpent:     6250,
		LastOrderDate:  &lastOrder,
		BrokerName:     "Sarah Smith",
		BrokerDiscount: 10,
		Tags:           []string{"repeat-buyer"},
		Preferences: &personalization.CustomerPreferences{
			ProductCategories:      []string{"Business Cards", "Brochures"},
			CommunicationFrequency: "weekly",
			Language:               "en",
		},
		OrderHistory: []personalization.Order{
			{
				ID:    "sample-order-1",
				Total: 189.97,
				Date:  lastOrder,
				Items: []personalization.OrderItem{
					{ProductName: "Premium Business Cards", Quantity: 4, Price: 29.99},
					{ProductName: "Tri-fold Brochure", Quantity: 1, Price: 69.99},
				},
			},
		},
	}
}
