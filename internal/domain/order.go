package domain

import "time"

// Status is the order lifecycle discriminator. Orders move forward through the
// fixed sequence pending-design -> pending-production -> in-production -> completed.
type Status string

const (
	StatusPendingDesign     Status = "pending-design"
	StatusPendingProduction Status = "pending-production"
	StatusInProduction      Status = "in-production"
	StatusCompleted         Status = "completed"
)

// IsValid reports whether s is one of the four lifecycle statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPendingDesign, StatusPendingProduction, StatusInProduction, StatusCompleted:
		return true
	}
	return false
}

// PrintingType values for the design phase. ThermalSubType is only meaningful
// when the printing type is thermal.
const (
	PrintingThermal    = "thermal"
	PrintingSilkscreen = "silkscreen"

	ThermalSugaris     = "sugaris"
	ThermalSublimation = "sublimation"
)

// Role identifies the department that created a custom field.
type Role string

const (
	RoleSales      Role = "sales"
	RoleDesign     Role = "design"
	RoleProduction Role = "production"
	RoleAdmin      Role = "admin"
)

// IsValid reports whether r is one of the four department tags.
func (r Role) IsValid() bool {
	switch r {
	case RoleSales, RoleDesign, RoleProduction, RoleAdmin:
		return true
	}
	return false
}

// CustomFieldType discriminates the custom field value variants.
type CustomFieldType string

const (
	FieldText   CustomFieldType = "text"
	FieldNumber CustomFieldType = "number"
	FieldDate   CustomFieldType = "date"
	FieldSelect CustomFieldType = "select"
)

// CustomField is an ad-hoc typed key/value entry attached to an order. The
// Type field selects which value field carries the data; Options is populated
// only for the select variant. ID is unique within an order and AddedByRole is
// immutable after creation.
type CustomField struct {
	ID          string          `json:"id" bson:"id"`
	Name        string          `json:"name" bson:"name"`
	Type        CustomFieldType `json:"type" bson:"type"`
	TextValue   string          `json:"text_value,omitempty" bson:"textValue,omitempty"`
	NumberValue float64         `json:"number_value,omitempty" bson:"numberValue,omitempty"`
	DateValue   string          `json:"date_value,omitempty" bson:"dateValue,omitempty"`
	SelectValue string          `json:"select_value,omitempty" bson:"selectValue,omitempty"`
	Options     []string        `json:"options,omitempty" bson:"options,omitempty"`
	AddedBy     string          `json:"added_by" bson:"addedBy"`
	AddedByRole Role            `json:"added_by_role" bson:"addedByRole"`
	AddedAt     time.Time       `json:"added_at" bson:"addedAt"`
}

// Value returns the active variant value for display purposes.
func (f CustomField) Value() interface{} {
	switch f.Type {
	case FieldNumber:
		return f.NumberValue
	case FieldDate:
		return f.DateValue
	case FieldSelect:
		return f.SelectValue
	default:
		return f.TextValue
	}
}

// Order is the unit of work flowing through the shop: created by sales,
// designed by a designer, produced by production. Workflow timestamps are set
// exactly once by the transition that produces them and never edited after.
type Order struct {
	ID          string `json:"id,omitempty" bson:"_id,omitempty"`
	OrderNumber string `json:"order_number" bson:"orderNumber"`

	// Legacy identification fields kept for older orders
	CustomerName  string `json:"customer_name,omitempty" bson:"customerName,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty" bson:"customerPhone,omitempty"`
	OrderType     string `json:"order_type,omitempty" bson:"orderType,omitempty"`

	ProductType   string                 `json:"product_type" bson:"productType"`
	ProductConfig map[string]interface{} `json:"product_config,omitempty" bson:"productConfig,omitempty"`

	Quantity     int    `json:"quantity" bson:"quantity"`
	DeliveryDate string `json:"delivery_date" bson:"deliveryDate"` // YYYY-MM-DD
	SalesNotes   string `json:"sales_notes,omitempty" bson:"salesNotes,omitempty"`

	CreatedBy string    `json:"created_by" bson:"createdBy"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`

	// Designer assignment
	AssignedDesignerID   string `json:"assigned_designer_id,omitempty" bson:"assignedDesignerId,omitempty"`
	AssignedDesignerName string `json:"assigned_designer_name,omitempty" bson:"assignedDesignerName,omitempty"`

	// Design data, populated when design work completes
	DesignFileURL   string     `json:"design_file_url,omitempty" bson:"designFileUrl,omitempty"`
	Dimensions      string     `json:"dimensions,omitempty" bson:"dimensions,omitempty"`
	Colors          string     `json:"colors,omitempty" bson:"colors,omitempty"`
	Material        string     `json:"material,omitempty" bson:"material,omitempty"`
	Finishing       string     `json:"finishing,omitempty" bson:"finishing,omitempty"`
	DesignNotes     string     `json:"design_notes,omitempty" bson:"designNotes,omitempty"`
	PrintingType    string     `json:"printing_type,omitempty" bson:"printingType,omitempty"`
	ThermalSubType  string     `json:"thermal_sub_type,omitempty" bson:"thermalSubType,omitempty"`
	DesignedBy      string     `json:"designed_by,omitempty" bson:"designedBy,omitempty"`
	DesignStartedAt *time.Time `json:"design_started_at,omitempty" bson:"designStartedAt,omitempty"`
	DesignedAt      *time.Time `json:"designed_at,omitempty" bson:"designedAt,omitempty"`

	// Production data
	ProductionNotes string     `json:"production_notes,omitempty" bson:"productionNotes,omitempty"`
	CompletedBy     string     `json:"completed_by,omitempty" bson:"completedBy,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" bson:"completedAt,omitempty"`

	Status Status `json:"status" bson:"status"`

	CustomFields []CustomField `json:"custom_fields,omitempty" bson:"customFields,omitempty"`

	// Workflow timestamps
	SentToDesignAt     *time.Time `json:"sent_to_design_at,omitempty" bson:"sentToDesignAt,omitempty"`
	SentToProductionAt *time.Time `json:"sent_to_production_at,omitempty" bson:"sentToProductionAt,omitempty"`

	// Monday.com correlation. Set once by a successful outbound sync, never
	// cleared. The board ID is stored next to each item ID because the item
	// may live on the assigned designer's personal board rather than the
	// configured default, and later status pushes must target the same board.
	MondayItemID            string `json:"monday_item_id,omitempty" bson:"mondayItemId,omitempty"`
	MondayBoardID           string `json:"monday_board_id,omitempty" bson:"mondayBoardId,omitempty"`
	MondayProductionItemID  string `json:"monday_production_item_id,omitempty" bson:"mondayProductionItemId,omitempty"`
	MondayProductionBoardID string `json:"monday_production_board_id,omitempty" bson:"mondayProductionBoardId,omitempty"`

	LastSyncedFromMonday *time.Time `json:"last_synced_from_monday,omitempty" bson:"lastSyncedFromMonday,omitempty"`

	// Sub-items
	IsParentOrder bool `json:"is_parent_order,omitempty" bson:"isParentOrder,omitempty"`
	SubitemsCount int  `json:"subitems_count,omitempty" bson:"subitemsCount,omitempty"`
}

// ProductLabel returns the human label used when composing external item names.
// Falls back to the legacy orderType field for orders created before the
// product-type catalog existed.
func (o *Order) ProductLabel() string {
	if label, ok := ProductTypeLabel(o.ProductType); ok {
		return label
	}
	if o.OrderType != "" {
		return o.OrderType
	}
	return o.ProductType
}

// SubItem is a child work unit under a parent order, modelling multiple product
// variants inside one customer order. Its lifecycle is independent of the
// parent's status field.
type SubItem struct {
	ID            string                 `json:"id,omitempty" bson:"_id,omitempty"`
	ParentOrderID string                 `json:"parent_order_id" bson:"parentOrderId"`
	ProductType   string                 `json:"product_type" bson:"productType"`
	ProductConfig map[string]interface{} `json:"product_config,omitempty" bson:"productConfig,omitempty"`
	Quantity      int                    `json:"quantity" bson:"quantity"`
	SalesNotes    string                 `json:"sales_notes,omitempty" bson:"salesNotes,omitempty"`
	Modifications string                 `json:"modifications,omitempty" bson:"modifications,omitempty"`
	FileLinks     []string               `json:"file_links,omitempty" bson:"fileLinks,omitempty"`
	Status        Status                 `json:"status" bson:"status"`

	DesignFileURL string     `json:"design_file_url,omitempty" bson:"designFileUrl,omitempty"`
	DesignNotes   string     `json:"design_notes,omitempty" bson:"designNotes,omitempty"`
	DesignedBy    string     `json:"designed_by,omitempty" bson:"designedBy,omitempty"`
	DesignedAt    *time.Time `json:"designed_at,omitempty" bson:"designedAt,omitempty"`

	CreatedBy   string     `json:"created_by,omitempty" bson:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"createdAt"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completedAt,omitempty"`
}
