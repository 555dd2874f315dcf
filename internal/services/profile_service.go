package services

import (
	"context"
	"errors"
	"time"

	"drowsyguard/internal/models"
	"drowsyguard/internal/repositories/interfaces"
	"drowsyguard/internal/utils"
	"drowsyguard/internal/validators"
	"drowsyguard/pkg/logger"
)

// ProfileService consumes driver profile upserts from the profile channel
// and writes them into the driver directory.
type ProfileService interface {
	ProcessUpdate(ctx context.Context, update *models.ProfileUpdate) error
}

type profileService struct {
	driverRepo interfaces.DriverRepository
	profileTTL time.Duration
	logger     *logger.Logger
}

func NewProfileService(driverRepo interfaces.DriverRepository, profileTTL time.Duration, log *logger.Logger) ProfileService {
	return &profileService{
		driverRepo: driverRepo,
		profileTTL: profileTTL,
		logger:     log,
	}
}

// ProcessUpdate validates and upserts one profile record. An update older
// than the stored record is rejected whole, never merged field-wise.
func (s *profileService) ProcessUpdate(ctx context.Context, update *models.ProfileUpdate) error {
	log := s.logger.WithDriverID(update.DriverID)

	if err := validators.ValidateProfileUpdate(update); err != nil {
		log.WithError(err).Warn("Profile update rejected: malformed payload")
		return err
	}

	lastUpdated, _ := utils.ParseTimeISO(update.Timestamp)

	profile := &models.DriverProfile{
		DriverID:         update.DriverID,
		Name:             update.Name,
		Gender:           update.Gender,
		DateOfBirth:      update.DateOfBirth,
		WeightKG:         update.WeightKG,
		HeightCM:         update.HeightCM,
		EmergencyContact: update.EmergencyContact,
		BloodType:        update.BloodType,
		ChronicDiseases:  update.ChronicDiseases,
		Allergies:        update.Allergies,
		LastUpdated:      lastUpdated,
		Expiry:           time.Now().Add(s.profileTTL),
	}

	if err := s.driverRepo.Upsert(ctx, profile); err != nil {
		if errors.Is(err, models.ErrStaleProfileUpdate) {
			log.Warn("Profile update older than stored record, rejected")
			return err
		}
		log.WithError(err).Error("Failed to upsert driver profile")
		return err
	}

	log.Info("Driver profile updated")
	return nil
}
