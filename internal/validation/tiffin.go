package validation

import "tiffin/internal/models"

// ImageRefInput is the uploaded-image metadata attached to a tiffin.
type ImageRefInput struct {
	FileID   string `json:"fileId" validate:"required"`
	FilePath string `json:"filePath" validate:"required"`
	URL      string `json:"url" validate:"required,url"`
}

func (i *ImageRefInput) model() *models.ImageRef {
	if i == nil {
		return nil
	}
	return &models.ImageRef{FileID: i.FileID, FilePath: i.FilePath, URL: i.URL}
}

// NutritionInput requires all four values whenever nutrition is sent.
type NutritionInput struct {
	Calories *float64 `json:"calories" validate:"required,gte=0"`
	Protein  *float64 `json:"protein" validate:"required,gte=0"`
	Carbs    *float64 `json:"carbs" validate:"required,gte=0"`
	Fat      *float64 `json:"fat" validate:"required,gte=0"`
}

func (n *NutritionInput) model() *models.Nutrition {
	if n == nil {
		return nil
	}
	return &models.Nutrition{Calories: *n.Calories, Protein: *n.Protein, Carbs: *n.Carbs, Fat: *n.Fat}
}

// TiffinCreate is the strict shape for adding a catalog item.
type TiffinCreate struct {
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description" validate:"required"`
	Price         float64         `json:"price" validate:"required,gt=0,cents"`
	Category      string          `json:"category" validate:"required"`
	Image         string          `json:"image" validate:"required,url"`
	OriginalPrice *float64        `json:"originalPrice,omitempty" validate:"omitnil,gt=0,cents"`
	ImageKit      *ImageRefInput  `json:"imageKit,omitempty"`
	Badges        []string        `json:"badges,omitempty" validate:"omitempty,dive,required"`
	Nutrition     *NutritionInput `json:"nutrition,omitempty"`
	Available     *bool           `json:"available,omitempty"`
}

// TiffinCreate decodes and validates a create payload.
func (v *Validator) TiffinCreate(body []byte) (*TiffinCreate, error) {
	var in TiffinCreate
	if err := v.decode(body, &in); err != nil {
		return nil, err
	}
	in.Badges = dedupe(in.Badges)
	return &in, nil
}

// Tiffin builds a new catalog item. Items are available unless told otherwise.
func (in *TiffinCreate) Tiffin() *models.Tiffin {
	available := true
	if in.Available != nil {
		available = *in.Available
	}
	return &models.Tiffin{
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Image:         in.Image,
		ImageKit:      in.ImageKit.model(),
		Category:      in.Category,
		Badges:        in.Badges,
		Nutrition:     in.Nutrition.model(),
		Available:     available,
	}
}

// TiffinUpdate is the partial shape: every field is optional, but any field
// that is present is held to the same constraint as on create. A present
// null is rejected rather than read as absent.
type TiffinUpdate struct {
	Name          *string         `json:"name,omitempty" validate:"omitnil,min=1"`
	Description   *string         `json:"description,omitempty" validate:"omitnil,min=1"`
	Price         *float64        `json:"price,omitempty" validate:"omitnil,gt=0,cents"`
	Category      *string         `json:"category,omitempty" validate:"omitnil,min=1"`
	Image         *string         `json:"image,omitempty" validate:"omitnil,url"`
	OriginalPrice *float64        `json:"originalPrice,omitempty" validate:"omitnil,gt=0,cents"`
	ImageKit      *ImageRefInput  `json:"imageKit,omitempty"`
	Badges        []string        `json:"badges,omitempty" validate:"omitempty,dive,required"`
	Nutrition     *NutritionInput `json:"nutrition,omitempty"`
	Available     *bool           `json:"available,omitempty"`
}

// TiffinUpdate decodes and validates a partial update payload.
func (v *Validator) TiffinUpdate(body []byte) (*TiffinUpdate, error) {
	var in TiffinUpdate
	if err := v.decode(body, &in); err != nil {
		return nil, err
	}
	if in.Badges != nil {
		in.Badges = dedupe(in.Badges)
	}
	return &in, nil
}

// Apply merges the present fields into t.
func (in *TiffinUpdate) Apply(t *models.Tiffin) {
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Price != nil {
		t.Price = *in.Price
	}
	if in.Category != nil {
		t.Category = *in.Category
	}
	if in.Image != nil {
		t.Image = *in.Image
	}
	if in.OriginalPrice != nil {
		t.OriginalPrice = in.OriginalPrice
	}
	if in.ImageKit != nil {
		t.ImageKit = in.ImageKit.model()
	}
	if in.Badges != nil {
		t.Badges = in.Badges
	}
	if in.Nutrition != nil {
		t.Nutrition = in.Nutrition.model()
	}
	if in.Available != nil {
		t.Available = *in.Available
	}
}

// dedupe keeps the first occurrence of every label.
func dedupe(labels []string) []string {
	if len(labels) == 0 {
		return labels
	}
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
