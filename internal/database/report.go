package database

import (
	"github.com/google/uuid"

	"github.com/mzhurov/commune/internal/models"
)

func (d *Database) CreateReport(report *models.UserReport) error {
	return d.db.Create(report).Error
}

func (d *Database) ListReportsByUser(reporterID uuid.UUID) ([]models.UserReport, error) {
	var reports []models.UserReport
	err := d.db.
		Where("reporter_id = ?", reporterID).
		Order("created_at DESC").
		Preload("Reported").
		Find(&reports).Error
	return reports, err
}
