// Package store provides database operations for customers and email
// templates backing the personalization service.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/printcraft/personalization/internal/personalization"
)

// Store provides database operations for personalization entities.
type Store struct {
	db *sql.DB
}

// New creates a new store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EmailTemplate is a stored subject/body template pair. Template content is
// opaque to the store; the personalization and templates packages interpret it.
type EmailTemplate struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"html_content"`
	TextContent string    `json:"text_content,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetCustomer loads a customer record with order history. Returns
// (nil, nil) when the customer does not exist.
func (s *Store) GetCustomer(ctx context.Context, customerID string) (*personalization.CustomerPersonalizationData, error) {
	query := `SELECT id, email, first_name, last_name, company, total_orders, total_spent,
		last_order_date, broker_id, broker_name, broker_discount, tags, preferences
		FROM customers WHERE id = $1`

	var (
		c             personalization.CustomerPersonalizationData
		firstName     sql.NullString
		lastName      sql.NullString
		company       sql.NullString
		lastOrderDate sql.NullTime
		brokerID      sql.NullString
		brokerName    sql.NullString
		brokerDisc    sql.NullFloat64
		tags          pq.StringArray
		preferences   []byte
	)

	err := s.db.QueryRowContext(ctx, query, customerID).Scan(
		&c.ID, &c.Email, &firstName, &lastName, &company,
		&c.TotalOrders, &c.TotalSpent, &lastOrderDate,
		&brokerID, &brokerName, &brokerDisc, &tags, &preferences,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	c.FirstName = firstName.String
	c.LastName = lastName.String
	c.Company = company.String
	if lastOrderDate.Valid {
		t := lastOrderDate.Time
		c.LastOrderDate = &t
	}
	c.BrokerID = brokerID.String
	c.BrokerName = brokerName.String
	c.BrokerDiscount = brokerDisc.Float64
	c.Tags = tags

	if len(preferences) > 0 {
		var prefs personalization.CustomerPreferences
		if err := json.Unmarshal(preferences, &prefs); err == nil {
			c.Preferences = &prefs
		}
	}

	history, err := s.loadOrderHistory(ctx, customerID)
	if err != nil {
		return nil, err
	}
	c.OrderHistory = history

	return &c, nil
}

// loadOrderHistory fetches a customer's past orders, newest first. Line items
// live in a JSONB column; rows with unparseable items keep an empty item list
// rather than failing the load.
func (s *Store) loadOrderHistory(ctx context.Context, customerID string) ([]personalization.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, total, items, ordered_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY ordered_at DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}
	defer rows.Close()

	var orders []personalization.Order
	for rows.Next() {
		var (
			o     personalization.Order
			items []byte
		)
		if err := rows.Scan(&o.ID, &o.Total, &items, &o.Date); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if len(items) > 0 {
			json.Unmarshal(items, &o.Items)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CreateTemplate inserts a new email template.
func (s *Store) CreateTemplate(ctx context.Context, tmpl *EmailTemplate) error {
	tmpl.ID = uuid.New()
	tmpl.CreatedAt = time.Now()
	tmpl.UpdatedAt = tmpl.CreatedAt

	query := `INSERT INTO email_templates (id, name, subject, html_content, text_content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query, tmpl.ID, tmpl.Name, tmpl.Subject,
		tmpl.HTMLContent, tmpl.TextContent, tmpl.CreatedAt, tmpl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// GetTemplate retrieves a template by ID. Returns (nil, nil) when missing.
func (s *Store) GetTemplate(ctx context.Context, templateID uuid.UUID) (*EmailTemplate, error) {
	query := `SELECT id, name, subject, html_content, text_content, created_at, updated_at
		FROM email_templates WHERE id = $1`

	tmpl := &EmailTemplate{}
	err := s.db.QueryRowContext(ctx, query, templateID).Scan(
		&tmpl.ID, &tmpl.Name, &tmpl.Subject, &tmpl.HTMLContent,
		&tmpl.TextContent, &tmpl.CreatedAt, &tmpl.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return tmpl, nil
}

// ListTemplates returns all templates, most recently updated first.
func (s *Store) ListTemplates(ctx context.Context) ([]EmailTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, subject, html_content, text_content, created_at, updated_at
		FROM email_templates
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []EmailTemplate
	for rows.Next() {
		var tmpl EmailTemplate
		if err := rows.Scan(&tmpl.ID, &tmpl.Name, &tmpl.Subject, &tmpl.HTMLContent,
			&tmpl.TextContent, &tmpl.CreatedAt, &tmpl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, tmpl)
	}
	return templates, rows.Err()
}

// UpdateTemplate updates a template's name and content.
func (s *Store) UpdateTemplate(ctx context.Context, tmpl *EmailTemplate) error {
	tmpl.UpdatedAt = time.Now()

	query := `UPDATE email_templates
		SET name = $2, subject = $3, html_content = $4, text_content = $5, updated_at = $6
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, tmpl.ID, tmpl.Name, tmpl.Subject,
		tmpl.HTMLContent, tmpl.TextContent, tmpl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("template %s not found", tmpl.ID)
	}
	return nil
}

// DeleteTemplate removes a template.
func (s *Store) DeleteTemplate(ctx context.Context, templateID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM email_templates WHERE id = $1`, templateID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
