package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service wraps the repositories with field validation.
type Service struct {
	patients  PatientRepository
	providers ProviderRepository
}

func NewService(patients PatientRepository, providers ProviderRepository) *Service {
	return &Service{patients: patients, providers: providers}
}

func validateName(first, last string) error {
	if strings.TrimSpace(first) == "" {
		return fmt.Errorf("first_name is required")
	}
	if strings.TrimSpace(last) == "" {
		return fmt.Errorf("last_name is required")
	}
	return nil
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if err := validateName(p.FirstName, p.LastName); err != nil {
		return err
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if err := validateName(p.FirstName, p.LastName); err != nil {
		return err
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) ListPatients(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, strings.TrimSpace(query), limit, offset)
}

func (s *Service) CreateProvider(ctx context.Context, p *Provider) error {
	if err := validateName(p.FirstName, p.LastName); err != nil {
		return err
	}
	return s.providers.Create(ctx, p)
}

func (s *Service) GetProvider(ctx context.Context, id uuid.UUID) (*Provider, error) {
	return s.providers.GetByID(ctx, id)
}

func (s *Service) UpdateProvider(ctx context.Context, p *Provider) error {
	if err := validateName(p.FirstName, p.LastName); err != nil {
		return err
	}
	return s.providers.Update(ctx, p)
}

func (s *Service) ListProviders(ctx context.Context, query string, activeOnly bool, limit, offset int) ([]*Provider, int, error) {
	return s.providers.List(ctx, strings.TrimSpace(query), activeOnly, limit, offset)
}

// Deactivate marks a provider as no longer offerable for new bookings.
// Existing appointments are untouched.
func (s *Service) DeactivateProvider(ctx context.Context, id uuid.UUID) (*Provider, error) {
	p, err := s.providers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Active = false
	if err := s.providers.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
