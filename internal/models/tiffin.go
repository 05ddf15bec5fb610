package models

import "time"

// ImageRef is metadata of an image held by the image service.
type ImageRef struct {
	FileID   string `json:"fileId"`
	FilePath string `json:"filePath"`
	URL      string `json:"url"`
}

// Nutrition per serving.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Tiffin is a catalog item.
type Tiffin struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string     `json:"name" gorm:"not null"`
	Description   string     `json:"description" gorm:"not null"`
	Price         float64    `json:"price" gorm:"not null"`
	OriginalPrice *float64   `json:"originalPrice,omitempty"`
	Image         string     `json:"image" gorm:"not null"`
	ImageKit      *ImageRef  `json:"imageKit,omitempty" gorm:"serializer:json;type:text"`
	Category      string     `json:"category" gorm:"not null;index"`
	Rating        float64    `json:"rating" gorm:"not null"`
	Orders        int64      `json:"orders" gorm:"not null"`
	Badges        []string   `json:"badges" gorm:"serializer:json;type:text"`
	Nutrition     *Nutrition `json:"nutrition,omitempty" gorm:"serializer:json;type:text"`
	Available     bool       `json:"available" gorm:"not null;index"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
