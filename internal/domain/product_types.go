package domain

// ProductFieldOption is one selectable value for a select/radio field.
type ProductFieldOption struct {
	Value   string `json:"value"`
	LabelAr string `json:"label_ar"`
	LabelEn string `json:"label_en"`
}

// FieldDependency gates a field on another field's value.
type FieldDependency struct {
	FieldID string   `json:"field_id"`
	Values  []string `json:"values"`
}

// ProductField describes one configurable attribute of a product type. The
// valid keys of Order.ProductConfig are the field IDs of the referenced
// product type.
type ProductField struct {
	ID        string               `json:"id"`
	Type      CustomFieldType      `json:"type"`
	LabelAr   string               `json:"label_ar"`
	LabelEn   string               `json:"label_en"`
	Required  bool                 `json:"required"`
	Options   []ProductFieldOption `json:"options,omitempty"`
	DependsOn *FieldDependency     `json:"depends_on,omitempty"`
	Unit      string               `json:"unit,omitempty"`
}

// ProductType is a catalog entry classifying an order.
type ProductType struct {
	ID      string         `json:"id"`
	NameAr  string         `json:"name_ar"`
	NameEn  string         `json:"name_en"`
	Fields  []ProductField `json:"fields"`
}

// ProductTypes is the fixed product-type catalog of the printing shop.
var ProductTypes = []ProductType{
	{
		ID:     "belts",
		NameAr: "الاحزمة",
		NameEn: "Belts",
		Fields: []ProductField{
			{
				ID: "belt_type", Type: FieldSelect, LabelAr: "نوع الحزام", LabelEn: "Belt Type", Required: true,
				Options: []ProductFieldOption{
					{Value: "cups", LabelAr: "أكواب", LabelEn: "Cups"},
					{Value: "light_paper", LabelAr: "ورقي خفيف", LabelEn: "Light Paper"},
				},
			},
			{
				ID: "paper_size", Type: FieldSelect, LabelAr: "حجم الورق", LabelEn: "Paper Size", Required: true,
				DependsOn: &FieldDependency{FieldID: "belt_type", Values: []string{"cups"}},
				Options: []ProductFieldOption{
					{Value: "small", LabelAr: "صغير", LabelEn: "Small"},
					{Value: "large", LabelAr: "كبير", LabelEn: "Large"},
				},
			},
			{
				ID: "adhesive", Type: FieldSelect, LabelAr: "اللاصق", LabelEn: "Adhesive", Required: true,
				DependsOn: &FieldDependency{FieldID: "belt_type", Values: []string{"light_paper"}},
				Options: []ProductFieldOption{
					{Value: "with", LabelAr: "بلاصق", LabelEn: "With Adhesive"},
					{Value: "without", LabelAr: "بدون لاصق", LabelEn: "Without Adhesive"},
				},
			},
			{ID: "belt_length", Type: FieldNumber, LabelAr: "طول الحزام", LabelEn: "Belt Length", Required: true, Unit: "cm"},
			{ID: "belt_width", Type: FieldNumber, LabelAr: "عرض الحزام", LabelEn: "Belt Width", Required: true, Unit: "cm"},
		},
	},
	{
		ID:     "ribbons",
		NameAr: "الشرايط",
		NameEn: "Ribbons",
		Fields: []ProductField{
			{
				ID: "ribbon_type", Type: FieldSelect, LabelAr: "نوع الشريط", LabelEn: "Ribbon Type", Required: true,
				Options: []ProductFieldOption{
					{Value: "satin", LabelAr: "ستان", LabelEn: "Satin"},
					{Value: "fabric", LabelAr: "قماش", LabelEn: "Fabric"},
				},
			},
			{
				ID: "ribbon_size", Type: FieldSelect, LabelAr: "المقاس", LabelEn: "Size", Required: true,
				Options: []ProductFieldOption{
					{Value: "narrow", LabelAr: "نحيف", LabelEn: "Narrow"},
					{Value: "normal", LabelAr: "عادي", LabelEn: "Normal"},
					{Value: "wide", LabelAr: "عريض", LabelEn: "Wide"},
				},
			},
			{
				ID: "ribbon_color", Type: FieldSelect, LabelAr: "اللون", LabelEn: "Color", Required: true,
				Options: []ProductFieldOption{
					{Value: "white", LabelAr: "ابيض", LabelEn: "White"},
					{Value: "colored", LabelAr: "ملون", LabelEn: "Colored"},
				},
			},
		},
	},
	{
		ID:     "stickers",
		NameAr: "الاستيكرات",
		NameEn: "Stickers",
	},
	{
		ID:     "custom",
		NameAr: "مخصص",
		NameEn: "Custom",
	},
}

// GetProductType looks up a catalog entry by ID.
func GetProductType(id string) (*ProductType, bool) {
	for i := range ProductTypes {
		if ProductTypes[i].ID == id {
			return &ProductTypes[i], true
		}
	}
	return nil, false
}

// ProductTypeLabel returns the English display label for a product type ID.
func ProductTypeLabel(id string) (string, bool) {
	pt, ok := GetProductType(id)
	if !ok {
		return "", false
	}
	return pt.NameEn, true
}
