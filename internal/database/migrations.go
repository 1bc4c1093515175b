package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aufildessentiers/backend/internal/models"
	"github.com/aufildessentiers/backend/pkg/crypto"
)

// DefaultAdminEmail is the seeded administrator account. Its password must be
// changed after first login.
const (
	DefaultAdminEmail    = "admin@aufildessentiers.fr"
	defaultAdminPassword = "ChangeMe123!"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.VerificationToken{},
		&models.RefreshToken{},
		&models.Event{},
		&models.EventRegistration{},
		&models.BlogArticle{},
		&models.Contact{},
		&models.CacheEntry{},
	)
}

// SeedData populates the default administrator account and, on an empty
// database, a couple of sample events and articles. Safe to run repeatedly.
func SeedData(db *gorm.DB) error {
	admin, err := seedAdmin(db)
	if err != nil {
		return err
	}

	if err := seedEvents(db, admin.ID); err != nil {
		return err
	}

	return seedArticles(db, admin.ID)
}

func seedAdmin(db *gorm.DB) (*models.User, error) {
	var admin models.User
	err := db.Where("email = ?", DefaultAdminEmail).First(&admin).Error
	if err == nil {
		return &admin, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hash, err := crypto.HashPassword(defaultAdminPassword, crypto.DefaultBcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	admin = models.User{
		Email:           DefaultAdminEmail,
		Password:        hash,
		Name:            "Administrateur",
		Role:            models.RoleAdmin,
		Status:          models.StatusActive,
		EmailVerifiedAt: &now,
	}
	if err := db.Create(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func seedEvents(db *gorm.DB, creatorID uint) error {
	var count int64
	if err := db.Model(&models.Event{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	events := []models.Event{
		{
			Title:           "Randonnée du Puy de Dôme",
			Description:     "Boucle panoramique au sommet du Puy de Dôme.",
			Date:            time.Now().AddDate(0, 1, 0),
			Location:        "Orcines, Puy-de-Dôme",
			Latitude:        45.7722,
			Longitude:       2.9644,
			MaxParticipants: 20,
			Status:          models.EventStatusOpen,
			IsActive:        true,
			CreatedBy:       creatorID,
		},
		{
			Title:           "Sentier des Crêtes",
			Description:     "Randonnée familiale le long des crêtes du Sancy.",
			Date:            time.Now().AddDate(0, 2, 0),
			Location:        "Mont-Dore, Puy-de-Dôme",
			Latitude:        45.5763,
			Longitude:       2.8120,
			MaxParticipants: 15,
			Status:          models.EventStatusOpen,
			IsActive:        true,
			CreatedBy:       creatorID,
		},
	}

	return db.Create(&events).Error
}

func seedArticles(db *gorm.DB, authorID uint) error {
	var count int64
	if err := db.Model(&models.BlogArticle{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	articles := []models.BlogArticle{
		{
			Title:       "Bien préparer sa première randonnée",
			Slug:        "bien-preparer-sa-premiere-randonnee",
			Excerpt:     "Équipement, itinéraire, météo : les bases avant de partir.",
			Content:     "Choisir un itinéraire adapté à son niveau est la première étape...",
			Tags:        datatypes.JSON([]byte(`["débutant","équipement"]`)),
			AuthorID:    authorID,
			PublishedAt: &now,
		},
	}

	return db.Create(&articles).Error
}
