package db

import (
	"context"

	"github.com/jinzhu/gorm"

	"ubilite/models"
)

// SMSTemplateStore is the gorm-backed sms.TemplateSource. Operators edit
// templates out of band; the handler reads them per message key.
type SMSTemplateStore struct {
	db *gorm.DB
}

func NewSMSTemplateStore(database *gorm.DB) *SMSTemplateStore {
	return &SMSTemplateStore{db: database}
}

func (s *SMSTemplateStore) Get(ctx context.Context, id string) (*models.SMSTemplate, error) {
	var t models.SMSTemplate
	err := s.db.Where("id = ?", id).First(&t).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
