package webhook_handlers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"printflow-core-monday-layer/internal/application"
	"printflow-core-monday-layer/internal/domain"
)

// intakePayload is the classified form of an intake webhook body: exactly one
// of Salla or Generic is set. Classification is structural: a body carrying
// both an event and a merchant field is Salla-sourced, anything else is a
// generic automation payload.
type intakePayload struct {
	Salla   *sallaPayload
	Generic *genericPayload
}

type sallaPayload struct {
	Event    string         `json:"event"`
	Merchant int64          `json:"merchant"`
	Data     sallaOrderData `json:"data"`
}

type sallaOrderData struct {
	ID            int64         `json:"id"`
	ReferenceID   int64         `json:"reference_id"`
	Draft         bool          `json:"draft"`
	Status        sallaStatus   `json:"status"`
	Items         []sallaItem   `json:"items"`
	Date          sallaDate     `json:"date"`
	Customer      sallaCustomer `json:"customer"`
	Amounts       sallaAmounts  `json:"amounts"`
	Currency      string        `json:"currency"`
	PaymentMethod string        `json:"payment_method"`
}

type sallaStatus struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type sallaItem struct {
	Name     string          `json:"name"`
	SKU      string          `json:"sku"`
	Quantity json.RawMessage `json:"quantity"`
	Price    json.RawMessage `json:"price"`
}

type sallaDate struct {
	Date string `json:"date"`
}

type sallaCustomer struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Mobile     string `json:"mobile"`
	MobileCode string `json:"mobile_code"`
	Email      string `json:"email"`
}

type sallaAmounts struct {
	Total json.RawMessage `json:"total"`
}

type genericPayload struct {
	ProductType   string                 `json:"product_type"`
	Quantity      json.RawMessage        `json:"quantity"`
	DeliveryDate  string                 `json:"delivery_date"`
	OrderID       json.RawMessage        `json:"order_id"`
	Notes         string                 `json:"notes"`
	DesignerID    string                 `json:"designer_id"`
	DesignerName  string                 `json:"designer_name"`
	CustomFields  []domain.CustomField   `json:"custom_fields"`
	ProductConfig map[string]interface{} `json:"product_config"`

	receivedKeys []string
}

// classifyIntake parses an intake body and decides its source.
func classifyIntake(body []byte) (*intakePayload, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}

	_, hasEvent := probe["event"]
	_, hasMerchant := probe["merchant"]
	if hasEvent && hasMerchant {
		var salla sallaPayload
		if err := json.Unmarshal(body, &salla); err != nil {
			return nil, fmt.Errorf("invalid salla payload: %w", err)
		}
		return &intakePayload{Salla: &salla}, nil
	}

	var generic genericPayload
	if err := json.Unmarshal(body, &generic); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	for key := range probe {
		generic.receivedKeys = append(generic.receivedKeys, key)
	}
	return &intakePayload{Generic: &generic}, nil
}

// missingFields lists the required generic fields absent from the payload.
func (p *genericPayload) missingFields() []string {
	var missing []string
	if p.ProductType == "" {
		missing = append(missing, "product_type")
	}
	if len(p.Quantity) == 0 || string(p.Quantity) == "null" {
		missing = append(missing, "quantity")
	}
	if p.DeliveryDate == "" {
		missing = append(missing, "delivery_date")
	}
	return missing
}

// parseLooseInt accepts both JSON numbers and numeric strings; automation
// tools send either.
func parseLooseInt(raw json.RawMessage) (int, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, fmt.Errorf("empty value")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return int(f), nil
}

// rawToString renders a raw JSON scalar as a plain string.
func rawToString(raw json.RawMessage) string {
	return strings.Trim(strings.TrimSpace(string(raw)), `"`)
}

// sallaStatusAllowList are the order states accepted for intake; drafts and
// anything else are logged and ignored.
var sallaStatusAllowList = map[string]bool{
	"completed":    true,
	"under-review": true,
	"in-progress":  true,
}

// extractProductType keyword-matches an item name/SKU against the catalog in
// both English and Arabic, defaulting to custom.
func extractProductType(itemName, sku string) string {
	text := strings.ToLower(itemName + " " + sku)
	switch {
	case strings.Contains(text, "ribbon") || strings.Contains(text, "شريط"):
		return "ribbons"
	case strings.Contains(text, "belt") || strings.Contains(text, "حزام"):
		return "belts"
	case strings.Contains(text, "sticker") || strings.Contains(text, "استيكر") || strings.Contains(text, "ملصق"):
		return "stickers"
	}
	return "custom"
}

// sallaDateLayouts are the timestamp shapes Salla has been observed sending.
var sallaDateLayouts = []string{
	"2006-01-02 15:04:05.000000",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

func parseSallaDate(s string) time.Time {
	for _, layout := range sallaDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}

// sallaTransform is the result of normalizing a Salla order payload.
type sallaTransform struct {
	ShouldProcess bool
	Reason        string
	Input         application.CreateOrderInput
}

// transformSallaOrder normalizes a Salla order into the engine's create
// input. Draft orders and unconfirmed statuses are filtered, not rejected.
func transformSallaOrder(p *sallaPayload, now time.Time) sallaTransform {
	data := p.Data

	if data.Draft || !sallaStatusAllowList[data.Status.Slug] {
		reason := "not confirmed"
		if data.Draft {
			reason = "draft"
		}
		statusName := data.Status.Name
		if statusName == "" {
			statusName = "unknown"
		}
		return sallaTransform{
			ShouldProcess: false,
			Reason:        fmt.Sprintf("Order is %s (status: %s)", reason, statusName),
		}
	}

	productType := "custom"
	if len(data.Items) > 0 {
		productType = extractProductType(data.Items[0].Name, data.Items[0].SKU)
	}

	// Delivery defaults to one week after the order date.
	orderDate := now
	if data.Date.Date != "" {
		orderDate = parseSallaDate(data.Date.Date)
	}
	deliveryDate := orderDate.AddDate(0, 0, 7).Format("2006-01-02")

	totalQuantity := 0
	configItems := make([]map[string]interface{}, 0, len(data.Items))
	for _, item := range data.Items {
		qty, err := parseLooseInt(item.Quantity)
		if err == nil {
			totalQuantity += qty
		}
		configItems = append(configItems, map[string]interface{}{
			"name":     item.Name,
			"sku":      item.SKU,
			"quantity": rawToString(item.Quantity),
			"price":    rawToString(item.Price),
		})
	}
	if totalQuantity < 1 {
		totalQuantity = 1
	}

	phone := data.Customer.Mobile
	if phone == "" {
		phone = data.Customer.MobileCode
	}
	if phone == "" {
		phone = "N/A"
	}
	email := data.Customer.Email
	if email == "" {
		email = "N/A"
	}
	payment := data.PaymentMethod
	if payment == "" {
		payment = "N/A"
	}
	total := rawToString(data.Amounts.Total)
	if total == "" {
		total = "0"
	}

	salesNotes := fmt.Sprintf(
		"Customer: %s %s\nPhone: %s\nEmail: %s\n\nOrder Total: %s %s\nPayment Method: %s\n\n[Auto-created from Salla store - Event: %s]",
		data.Customer.FirstName, data.Customer.LastName, phone, email,
		total, data.Currency, payment, p.Event,
	)

	reference := data.ReferenceID
	if reference == 0 {
		reference = data.ID
	}

	input := application.CreateOrderInput{
		OrderNumber: fmt.Sprintf("SALLA-%d", reference),
		ProductType: productType,
		ProductConfig: map[string]interface{}{
			"source":       domain.IntakeSourceSalla,
			"sallaOrderId": data.ID,
			"items":        configItems,
		},
		Quantity:     totalQuantity,
		DeliveryDate: deliveryDate,
		SalesNotes:   salesNotes,
		CustomFields: []domain.CustomField{
			{
				ID:          "salla_order_id",
				Name:        "Salla Order ID",
				Type:        domain.FieldText,
				TextValue:   strconv.FormatInt(data.ID, 10),
				AddedByRole: domain.RoleSales,
			},
			{
				ID:          "salla_reference_id",
				Name:        "Salla Reference ID",
				Type:        domain.FieldText,
				TextValue:   strconv.FormatInt(data.ReferenceID, 10),
				AddedByRole: domain.RoleSales,
			},
			{
				ID:          "salla_order_total",
				Name:        "Order Total",
				Type:        domain.FieldText,
				TextValue:   fmt.Sprintf("%s %s", total, data.Currency),
				AddedByRole: domain.RoleSales,
			},
		},
	}

	return sallaTransform{ShouldProcess: true, Input: input}
}
