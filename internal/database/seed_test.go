package database_test

import (
	"testing"

	"investment-service/internal/database"
	"investment-service/internal/models"
	"investment-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedPackages(t *testing.T) {
	db := testutil.NewDB(t)

	created, updated, err := database.SeedPackages(db)
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.Equal(t, 0, updated)

	require.NoError(t, db.Model(&models.Package{}).Where("name = ?", "Growth").Update("image_url", "/old.png").Error)

	created, updated, err = database.SeedPackages(db)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 3, updated)

	var growth models.Package
	require.NoError(t, db.Where("name = ?", "Growth").First(&growth).Error)
	assert.Equal(t, "/images/growth.jpeg", growth.ImageUrl)
	assert.Nil(t, growth.MaxPrice)
	assert.Equal(t, 14, growth.DurationDays)

	var count int64
	db.Model(&models.Package{}).Count(&count)
	assert.Equal(t, int64(3), count)
}
