package types

// ProductImage is a catalog image reference.
type ProductImage struct {
	URL       string `json:"url" validate:"required,url"`
	Alt       string `json:"alt,omitempty" validate:"max=200"`
	IsPrimary bool   `json:"isPrimary"`
}

// ProductImages is persisted as a JSON array.
type ProductImages []ProductImage

// Primary returns the flagged primary image, falling back to the first one.
func (images ProductImages) Primary() *ProductImage {
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		if images[i].IsPrimary {
			return &images[i]
		}
	}
	return &images[0]
}
