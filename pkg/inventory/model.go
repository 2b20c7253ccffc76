package inventory

// Model is a hardware model/SKU record in the asset store. ModelNumber is
// matched against the MDM's model identifier.
type Model struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	ModelNumber    string `json:"model_number"`
	ManufacturerID int    `json:"manufacturer_id"`
	CategoryID     int    `json:"category_id"`
}

// ModelPayload is the body for creating a new hardware model.
type ModelPayload struct {
	Name           string `json:"name"`
	ModelNumber    string `json:"model_number"`
	ManufacturerID int    `json:"manufacturer_id"`
	CategoryID     int    `json:"category_id"`
}
