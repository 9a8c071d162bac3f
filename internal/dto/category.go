package dto

// ActionRequest is one quick action of a category.
type ActionRequest struct {
	Label string `json:"label" validate:"required,max=40"`
	Icon  string `json:"icon" validate:"omitempty,icon"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// CategoryRequest creates or replaces a category.
type CategoryRequest struct {
	Name       string          `json:"name" validate:"required,max=60"`
	Color      string          `json:"color" validate:"required,hexcolor"`
	LabelColor *string         `json:"label_color" validate:"omitempty,hexcolor"`
	Priority   *int            `json:"priority" validate:"omitempty,min=1,max=3"`
	Icon       *string         `json:"icon" validate:"omitempty,icon"`
	IconColor  *string         `json:"icon_color" validate:"omitempty,hexcolor"`
	Actions    []ActionRequest `json:"actions" validate:"omitempty,max=20,dive"`
}

// ReplaceActionsRequest overwrites the action list of a category.
type ReplaceActionsRequest struct {
	Actions []ActionRequest `json:"actions" validate:"max=20,dive"`
}
