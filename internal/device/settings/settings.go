package settings

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"RapidSafe/internal/device/pingate"
	"RapidSafe/internal/models"
)

var (
	ErrPinsEqual     = errors.New("normal and duress PINs must differ")
	ErrMalformedPin  = errors.New("PIN must be exactly 4 digits")
	ErrMissingPhone  = errors.New("contact needs a phone number")
	ErrContactAbsent = errors.New("contact not found")
)

const credentialsRowID = 1

// Store is the device-local settings database: PIN credentials and
// emergency contacts.
type Store struct {
	db *gorm.DB
}

// New 迁移并返回设备本地存储
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&models.Credentials{}, &models.Contact{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// GetCredentials returns the stored PINs. An unconfigured device yields
// IsPinSet=false.
func (s *Store) GetCredentials(ctx context.Context) (models.Credentials, error) {
	var c models.Credentials
	err := s.db.WithContext(ctx).First(&c, credentialsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Credentials{}, nil
	}
	return c, err
}

// SetPins is the only mutator of the credentials. Equal or malformed PINs
// are refused so the stored pair always satisfies normal != duress.
func (s *Store) SetPins(ctx context.Context, normal, duress string) error {
	if !pingate.ValidFormat(normal) || !pingate.ValidFormat(duress) {
		return ErrMalformedPin
	}
	if normal == duress {
		return ErrPinsEqual
	}
	c := models.Credentials{ID: credentialsRowID, NormalPin: normal, DuressPin: duress, IsPinSet: true}
	return s.db.WithContext(ctx).Save(&c).Error
}

func (s *Store) AddContact(ctx context.Context, name, phone string) (*models.Contact, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrMissingPhone
	}
	c := &models.Contact{ID: uuid.NewString(), Name: strings.TrimSpace(name), PhoneNumber: phone}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) ListContacts(ctx context.Context) ([]models.Contact, error) {
	var out []models.Contact
	err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

func (s *Store) RemoveContact(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Contact{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContactAbsent
	}
	return nil
}
