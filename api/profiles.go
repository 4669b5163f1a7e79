package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

// ProfileReader is satisfied by *database.ProfileRepo.
type ProfileReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// ProfileFetcher loads a user's profile under that user's own claims, so
// row-level security lets them read nothing but their own row.
type ProfileFetcher struct {
	profiles ProfileReader
}

func NewProfileFetcher(profiles ProfileReader) ProfileFetcher {
	return ProfileFetcher{profiles: profiles}
}

// FetchProfile returns nil without error when the user has no profile row.
func (f ProfileFetcher) FetchProfile(ctx context.Context, identity *auth.Identity) (*models.Profile, error) {
	profile, err := f.profiles.FindByID(database.WithClaims(ctx, claimsOf(identity)), identity.ID)
	if errs.IsNotFound(err) {
		return nil, nil
	}
	return profile, err
}

func claimsOf(identity *auth.Identity) database.Claims {
	if identity == nil {
		return database.Claims{Role: "anon"}
	}
	return database.Claims{
		Subject: identity.ID.String(),
		Role:    identity.Role,
		Raw:     identity.Claims,
	}
}
