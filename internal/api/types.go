package api

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Customer is a CRM record as returned by GET /customers.
type Customer struct {
	ID                int               `json:"id"`
	Company           Company           `json:"company"`
	Contact           Contact           `json:"contact"`
	BehavioralData    BehavioralData    `json:"behavioral_data"`
	EngagementHistory EngagementHistory `json:"engagement_history"`
}

// Company holds the firmographic part of a customer.
type Company struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Size     string `json:"size"`
	Location string `json:"location"`
	Website  string `json:"website,omitempty"`
}

// Contact is the customer's primary point of contact.
type Contact struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// BehavioralData captures recent buying signals.
type BehavioralData struct {
	RecentActivities []string `json:"recent_activities"`
	PainPoints       []string `json:"pain_points"`
	BudgetRange      string   `json:"budget_range"`
	DecisionTimeline string   `json:"decision_timeline"`
}

// EngagementHistory summarizes prior contact with the customer.
type EngagementHistory struct {
	LastContact            string   `json:"last_contact"`
	InteractionFrequency   string   `json:"interaction_frequency"`
	PreferredCommunication string   `json:"preferred_communication"`
	PreviousPurchases      []string `json:"previous_purchases"`
}

// LastActivity returns the most recent activity, or "" when there is none.
func (c Customer) LastActivity() string {
	if len(c.BehavioralData.RecentActivities) == 0 {
		return ""
	}
	return c.BehavioralData.RecentActivities[0]
}

// DisplayName is the label used in customer pickers.
func (c Customer) DisplayName() string {
	return fmt.Sprintf("%s - %s", c.Company.Name, c.Company.Industry)
}

// Product is a catalog item as returned by GET /products.
type Product struct {
	ID                   int                 `json:"id"`
	Name                 string              `json:"name"`
	Category             string              `json:"category"`
	PriceRange           string              `json:"price_range"`
	Description          string              `json:"description"`
	CustomizationOptions map[string][]string `json:"customization_options"`
	TargetAudience       TargetAudience      `json:"target_audience"`
	Benefits             []string            `json:"benefits"`
	MinimumOrder         int                 `json:"minimum_order"`
	LeadTime             string              `json:"lead_time"`
	Color                string              `json:"color,omitempty"`
}

// TargetAudience describes who a product is aimed at.
type TargetAudience struct {
	Industries  []string `json:"industries"`
	CompanySize []string `json:"company_size"`
	UseCases    []string `json:"use_cases"`
}

// CustomizationKeys returns the names of the product's customization
// options in sorted order.
func (p Product) CustomizationKeys() []string {
	keys := make([]string, 0, len(p.CustomizationOptions))
	for k := range p.CustomizationOptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Analysis is the response of POST /analyze-customer.
type Analysis struct {
	CustomerID      int            `json:"customer_id"`
	Analysis        map[string]any `json:"analysis"`
	PainPoints      []string       `json:"pain_points"`
	Opportunities   []string       `json:"opportunities"`
	ConfidenceScore float64        `json:"confidence_score"`
	Timestamp       string         `json:"timestamp,omitempty"`
}

// Detail renders one free-form analysis field as text. Lists are joined
// with ", ", nested objects are rendered as JSON and absent keys yield "".
func (a *Analysis) Detail(key string) string {
	if a == nil || a.Analysis == nil {
		return ""
	}
	v, ok := a.Analysis[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

// Recommendation is one scored product suggestion.
type Recommendation struct {
	ProductID                int      `json:"product_id"`
	Name                     string   `json:"name"`
	Category                 string   `json:"category"`
	PriceRange               string   `json:"price_range"`
	MatchScore               float64  `json:"match_score"`
	Reasoning                string   `json:"reasoning"`
	CustomizationSuggestions []string `json:"customization_suggestions"`
}

// Recommendations is the response of POST /recommend-products.
type Recommendations struct {
	CustomerID        int              `json:"customer_id"`
	Recommendations   []Recommendation `json:"recommendations"`
	TopRecommendation *Recommendation  `json:"top_recommendation,omitempty"`
	Timestamp         string           `json:"timestamp,omitempty"`
}

// First returns the first recommendation in backend order.
func (r *Recommendations) First() (Recommendation, bool) {
	if r == nil || len(r.Recommendations) == 0 {
		return Recommendation{}, false
	}
	return r.Recommendations[0], true
}

// Empty reports whether there is nothing to act on.
func (r *Recommendations) Empty() bool {
	return r == nil || len(r.Recommendations) == 0
}

// Email is the response of POST /generate-email.
type Email struct {
	CustomerID           int     `json:"customer_id"`
	Subject              string  `json:"subject"`
	Body                 string  `json:"body"`
	Style                string  `json:"style"`
	PersonalizationScore float64 `json:"personalization_score"`
	CallToAction         string  `json:"call_to_action"`
	Timestamp            string  `json:"timestamp,omitempty"`
}

// Text returns the email in the plain-text form used for copy and download.
func (e *Email) Text() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("Subject: %s\n\n%s", e.Subject, e.Body)
}

// Empty reports whether the email carries no content.
func (e *Email) Empty() bool {
	return e == nil || (e.Subject == "" && e.Body == "")
}

// Mockup is the response of POST /create-mockup.
type Mockup struct {
	CustomerID           int            `json:"customer_id"`
	ProductID            int            `json:"product_id"`
	MockupImages         []string       `json:"mockup_images"`
	Variations           []Variation    `json:"variations"`
	CustomizationApplied map[string]any `json:"customization_applied"`
	Timestamp            string         `json:"timestamp,omitempty"`
}

// Variation describes one generated mockup image.
type Variation struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Variation returns the variation for image i, falling back to a generic
// "main" description when the backend sent fewer variations than images.
func (m *Mockup) Variation(i int) Variation {
	if m != nil && i >= 0 && i < len(m.Variations) {
		return m.Variations[i]
	}
	return Variation{Type: "main", Description: "Main mockup"}
}

// Health is the response of GET /health.
type Health struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Connection is the outcome of a connectivity probe.
type Connection struct {
	Connected bool   `json:"connected"`
	Status    string `json:"status,omitempty"`
	Service   string `json:"service,omitempty"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// EmailTemplate is a reusable email layout known to the backend.
type EmailTemplate struct {
	ID              int               `json:"id"`
	Name            string            `json:"name"`
	SubjectTemplate string            `json:"subject_template"`
	Style           string            `json:"style"`
	Template        map[string]string `json:"template"`
	UseCases        []string          `json:"use_cases"`
}

// AnalyzeRequest is the body of POST /analyze-customer.
type AnalyzeRequest struct {
	CustomerID int `json:"customer_id"`
}

// RecommendRequest is the body of POST /recommend-products.
type RecommendRequest struct {
	CustomerID  int    `json:"customer_id"`
	AnalysisID  string `json:"analysis_id,omitempty"`
	BudgetRange string `json:"budget_range,omitempty"`
}

// EmailRequest is the body of POST /generate-email.
type EmailRequest struct {
	CustomerID    int    `json:"customer_id"`
	ProductIDs    []int  `json:"product_ids"`
	EmailStyle    string `json:"email_style"`
	TemplateID    *int   `json:"template_id,omitempty"`
	CustomMessage string `json:"custom_message,omitempty"`
}

// MockupRequest is the body of POST /create-mockup.
type MockupRequest struct {
	CustomerID    int    `json:"customer_id"`
	ProductID     int    `json:"product_id"`
	LogoPlacement string `json:"logo_placement"`
	ColorScheme   string `json:"color_scheme"`
	CustomText    string `json:"custom_text,omitempty"`
	CompanyName   string `json:"company_name"`
}

// Percent converts a 0..1 score to a rounded percentage.
func Percent(score float64) int {
	return int(math.Round(score * 100))
}
