package database

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"investment-service/internal/models"
)

func price(v float64) *float64 {
	return &v
}

// DefaultPackages is the catalog installed by the seed command.
var DefaultPackages = []models.Package{
	{
		Name:               "Conservative",
		MinPrice:           15000,
		MaxPrice:           price(5000000),
		MinPriceUsd:        10,
		MaxPriceUsd:        price(3400),
		DurationDays:       18,
		DividendPercentage: 10,
		ImageUrl:           "/images/conservative.jpeg",
	},
	{
		Name:               "Moderate",
		MinPrice:           6000000,
		MaxPrice:           price(60000000),
		MinPriceUsd:        4000,
		MaxPriceUsd:        price(40000),
		DurationDays:       18,
		DividendPercentage: 15,
		ImageUrl:           "/images/moderate.jpeg",
	},
	{
		Name:               "Growth",
		MinPrice:           70000000,
		MinPriceUsd:        47000,
		DurationDays:       14,
		DividendPercentage: 20,
		ImageUrl:           "/images/growth.jpeg",
	},
}

// SeedPackages inserts the default packages, refreshing the image of any
// package that already exists under the same name.
func SeedPackages(db *gorm.DB) (created int, updated int, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, def := range DefaultPackages {
			var existing models.Package
			res := tx.Where("name = ?", def.Name).Limit(1).Find(&existing)
			if res.Error != nil {
				return res.Error
			}

			if res.RowsAffected == 0 {
				pkg := def
				if err := tx.Create(&pkg).Error; err != nil {
					return fmt.Errorf("create package %s: %w", def.Name, err)
				}
				log.Info().Str("package", def.Name).Msg("Added package")
				created++
				continue
			}

			if err := tx.Model(&existing).Update("image_url", def.ImageUrl).Error; err != nil {
				return fmt.Errorf("update package %s: %w", def.Name, err)
			}
			log.Info().Str("package", def.Name).Msg("Updated image for package")
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return created, updated, nil
}
