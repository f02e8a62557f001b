package product

import (
	"context"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
)

// ApplyRatingAdd folds an approved review's rating into the product aggregate.
func ApplyRatingAdd(ctx context.Context, repo *Repository, productID uuid.UUID, rating int) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	affected, err := repo.AddRating(ctx, productID, rating)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add rating")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// ApplyRatingRemove backs a rating out of the product aggregate.
func ApplyRatingRemove(ctx context.Context, repo *Repository, productID uuid.UUID, rating int) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	affected, err := repo.RemoveRating(ctx, productID, rating)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove rating")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
