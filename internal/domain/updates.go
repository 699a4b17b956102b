package domain

// DesignUpdate carries the design attributes merged into an order when design
// work completes. CustomFields are appended to the order's existing list,
// never replacing it.
type DesignUpdate struct {
	DesignFileURL  string        `json:"design_file_url"`
	Dimensions     string        `json:"dimensions"`
	Colors         string        `json:"colors"`
	Material       string        `json:"material"`
	Finishing      string        `json:"finishing"`
	DesignNotes    string        `json:"design_notes,omitempty"`
	PrintingType   string        `json:"printing_type,omitempty"`
	ThermalSubType string        `json:"thermal_sub_type,omitempty"`
	CustomFields   []CustomField `json:"custom_fields,omitempty"`
}

// OrderPatch is a partial update of correctable business data, used by the
// sales/admin edit path. It never carries status or workflow timestamps.
// Nil fields are left untouched.
type OrderPatch struct {
	OrderNumber   *string                `json:"order_number,omitempty"`
	ProductType   *string                `json:"product_type,omitempty"`
	ProductConfig map[string]interface{} `json:"product_config,omitempty"`
	Quantity      *int                   `json:"quantity,omitempty"`
	DeliveryDate  *string                `json:"delivery_date,omitempty"`
	SalesNotes    *string                `json:"sales_notes,omitempty"`
	DesignNotes   *string                `json:"design_notes,omitempty"`
	CustomFields  []CustomField          `json:"custom_fields,omitempty"`

	AssignedDesignerID   *string `json:"assigned_designer_id,omitempty"`
	AssignedDesignerName *string `json:"assigned_designer_name,omitempty"`
}

// SubItemDesignUpdate carries design data for a sub-item.
type SubItemDesignUpdate struct {
	DesignFileURL string   `json:"design_file_url,omitempty"`
	DesignNotes   string   `json:"design_notes,omitempty"`
	Modifications string   `json:"modifications,omitempty"`
	FileLinks     []string `json:"file_links,omitempty"`
}
