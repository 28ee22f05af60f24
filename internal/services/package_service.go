package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"investment-service/internal/cache"
	"investment-service/internal/models"
	"investment-service/internal/storage"
	"investment-service/pkg/common"
)

var validate = validator.New()

type PackageService struct {
	DB    *gorm.DB
	Store storage.ObjectStore
	Cache *cache.Catalog
}

func NewPackageService(db *gorm.DB, store storage.ObjectStore, catalog *cache.Catalog) *PackageService {
	return &PackageService{DB: db, Store: store, Cache: catalog}
}

type CreatePackageInput struct {
	Name               string   `validate:"required,max=120"`
	MinPrice           float64  `validate:"gt=0"`
	MaxPrice           *float64 `validate:"omitempty,gt=0"`
	MinPriceUsd        float64  `validate:"gt=0"`
	MaxPriceUsd        *float64 `validate:"omitempty,gt=0"`
	DurationDays       int      `validate:"gt=0,lte=365"`
	DividendPercentage float64  `validate:"gt=0,lte=100"`
}

// List returns the catalog, preferring the cached copy.
func (s *PackageService) List(ctx context.Context) ([]models.Package, error) {
	if pkgs, ok := s.Cache.Packages(ctx); ok {
		return pkgs, nil
	}

	var pkgs []models.Package
	if err := s.DB.WithContext(ctx).Order("id asc").Find(&pkgs).Error; err != nil {
		return nil, dbFailure(err)
	}
	s.Cache.StorePackages(ctx, pkgs)
	return pkgs, nil
}

// Create uploads the package image and stores a new catalog entry.
func (s *PackageService) Create(ctx context.Context, in CreatePackageInput, image *storage.File) (*models.Package, error) {
	in.Name = strings.TrimSpace(in.Name)
	if image == nil {
		return nil, common.ValidationError("No image file provided")
	}
	if err := validate.Struct(in); err != nil {
		return nil, common.ValidationError("Missing or invalid package data: %s", fieldList(err))
	}
	if in.MaxPrice != nil && *in.MaxPrice < in.MinPrice {
		return nil, common.ValidationError("max_price must not be below min_price")
	}
	if in.MaxPriceUsd != nil && *in.MaxPriceUsd < in.MinPriceUsd {
		return nil, common.ValidationError("max_price_usd must not be below min_price_usd")
	}
	if s.Store == nil {
		return nil, common.DependencyFailure("object storage is not configured", nil)
	}

	url, err := s.Store.Upload(ctx, storage.FolderPackageImages, *image)
	if err != nil {
		log.Error().Err(err).Str("package", in.Name).Msg("Package image upload failed")
		return nil, common.DependencyFailure("image upload failed", err)
	}

	pkg := models.Package{
		Name:               in.Name,
		MinPrice:           common.RoundMoney(in.MinPrice),
		MaxPrice:           roundPtr(in.MaxPrice),
		MinPriceUsd:        common.RoundMoney(in.MinPriceUsd),
		MaxPriceUsd:        roundPtr(in.MaxPriceUsd),
		DurationDays:       in.DurationDays,
		DividendPercentage: in.DividendPercentage,
		ImageUrl:           url,
	}
	if err := s.DB.WithContext(ctx).Create(&pkg).Error; err != nil {
		return nil, dbFailure(err)
	}
	s.Cache.Invalidate(ctx)

	log.Info().Int("package_id", pkg.ID).Str("name", pkg.Name).Msg("Package created")
	return &pkg, nil
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return common.Float64Ptr(common.RoundMoney(*v))
}

func fieldList(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return strings.Join(fields, ", ")
}
