package doctor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/medbook/booking-api/internal/model"
	"github.com/medbook/booking-api/internal/repository"
	"github.com/medbook/booking-api/internal/schedule"
	apperrors "github.com/medbook/booking-api/pkg/errors"
)

const (
	directoryCacheKey = "doctors:all"
	directoryCacheTTL = 30 * time.Second
)

// Service serves the public doctor directory and the doctor's own profile
// management. The directory listing is cached briefly since it backs the
// landing page.
type Service struct {
	userRepo repository.UserRepository
	cache    *gocache.Cache
}

func NewService(userRepo repository.UserRepository) *Service {
	return &Service{
		userRepo: userRepo,
		cache:    gocache.New(directoryCacheTTL, 2*directoryCacheTTL),
	}
}

func (s *Service) GetAll(ctx context.Context) ([]*model.User, error) {
	if cached, ok := s.cache.Get(directoryCacheKey); ok {
		return cached.([]*model.User), nil
	}

	doctors, err := s.userRepo.ListDoctors(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.cache.Set(directoryCacheKey, doctors, gocache.DefaultExpiration)
	return doctors, nil
}

func (s *Service) Search(ctx context.Context, specialization string) ([]*model.User, error) {
	if specialization == "" {
		return s.GetAll(ctx)
	}
	doctors, err := s.userRepo.SearchDoctors(ctx, specialization)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return doctors, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	doctor, err := s.userRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(err)
	}
	if !doctor.IsDoctor() {
		return nil, apperrors.NotFound("doctor", nil)
	}
	return doctor, nil
}

// UpdateProfile applies the editable profile fields. An availability
// declaration is validated against the weekday set and slot vocabulary before
// it replaces the stored one.
func (s *Service) UpdateProfile(ctx context.Context, doctorID uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	doctor, err := s.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	if req.AvailableSlots != nil {
		if err := schedule.ValidateDeclaration(*req.AvailableSlots); err != nil {
			return nil, apperrors.BadRequest(err.Error(), nil)
		}
		doctor.AvailableSlots = *req.AvailableSlots
	}

	if req.Name != nil {
		doctor.Name = *req.Name
	}
	if req.Email != nil {
		doctor.Email = *req.Email
	}
	if req.Phone != nil {
		doctor.Phone = req.Phone
	}
	if req.Specialization != nil {
		doctor.Specialization = req.Specialization
	}
	if req.Experience != nil {
		doctor.Experience = req.Experience
	}
	if req.Fees != nil {
		doctor.Fees = req.Fees
	}
	if req.About != nil {
		doctor.About = req.About
	}
	if req.Location != nil {
		doctor.Location = req.Location
	}
	if req.Qualifications != nil {
		doctor.Qualifications = req.Qualifications
	}
	if req.Image != nil {
		doctor.Image = req.Image
	}

	if err := s.userRepo.Update(ctx, doctor); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.cache.Delete(directoryCacheKey)
	return doctor, nil
}

// Delete removes a doctor account (admin view). A doctor who has ever held
// an appointment cannot be deleted; the appointment rows keep referencing the
// account, so the delete is rejected as a conflict instead.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("doctor", err)
		}
		if errors.Is(err, repository.ErrInUse) {
			return apperrors.Conflict("doctor has appointment history and cannot be deleted", err)
		}
		return apperrors.Internal(err)
	}
	s.cache.Delete(directoryCacheKey)
	return nil
}
