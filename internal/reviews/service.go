package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Service gates and moderates product reviews.
type Service interface {
	CreateReview(ctx context.Context, actor auth.Actor, input CreateReviewInput) (*ReviewDTO, error)
	UpdateReviewStatus(ctx context.Context, reviewID uuid.UUID, input UpdateStatusInput) (*ReviewDTO, error)
	GetProductReviews(ctx context.Context, productID uuid.UUID, page pagination.Params) (types.PageEnvelope[ReviewDTO], error)
	ListAllReviews(ctx context.Context, page pagination.Params, status *enums.ReviewStatus) (types.PageEnvelope[ReviewDTO], error)
	ToggleHighlight(ctx context.Context, reviewID uuid.UUID) (*ReviewDTO, error)
	DeleteReview(ctx context.Context, reviewID uuid.UUID) error
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) CreateReview(ctx context.Context, actor auth.Actor, input CreateReviewInput) (*ReviewDTO, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	exists, err := s.repo.ProductExists(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	delivered, err := s.repo.HasDeliveredPurchase(ctx, actor.UserID, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check purchase")
	}
	if !delivered {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you can only review products from delivered orders")
	}

	reviewed, err := s.repo.Exists(ctx, actor.UserID, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check existing review")
	}
	if reviewed {
		return nil, alreadyReviewed()
	}

	review := &models.Review{
		UserID:    actor.UserID,
		ProductID: input.ProductID,
		Rating:    input.Rating,
		Comment:   trimmed(input.Comment),
		Image:     trimmed(input.Image),
		Status:    enums.ReviewStatusPending,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, alreadyReviewed()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create review")
	}

	s.logg.Info(s.logg.WithField(ctx, "review_id", review.ID.String()), "review submitted")
	return s.load(ctx, review.ID)
}

func (s *service) UpdateReviewStatus(ctx context.Context, reviewID uuid.UUID, input UpdateStatusInput) (*ReviewDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid review status %q", input.Status)
	}
	affected, err := s.repo.UpdateColumns(ctx, reviewID, map[string]any{"status": input.Status})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update review status")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	return s.load(ctx, reviewID)
}

func (s *service) GetProductReviews(ctx context.Context, productID uuid.UUID, page pagination.Params) (types.PageEnvelope[ReviewDTO], error) {
	page = page.Normalize()
	rows, total, err := s.repo.ListApprovedForProduct(ctx, productID, page.Offset(), page.Limit)
	if err != nil {
		return types.PageEnvelope[ReviewDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list product reviews")
	}
	return pagination.NewPage(fromModels(rows), page, total), nil
}

func (s *service) ListAllReviews(ctx context.Context, page pagination.Params, status *enums.ReviewStatus) (types.PageEnvelope[ReviewDTO], error) {
	if status != nil && !status.IsValid() {
		return types.PageEnvelope[ReviewDTO]{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid review status %q", *status)
	}
	page = page.Normalize()
	rows, total, err := s.repo.ListAll(ctx, status, page.Offset(), page.Limit)
	if err != nil {
		return types.PageEnvelope[ReviewDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list reviews")
	}
	return pagination.NewPage(fromModels(rows), page, total), nil
}

func (s *service) ToggleHighlight(ctx context.Context, reviewID uuid.UUID) (*ReviewDTO, error) {
	affected, err := s.repo.ToggleHighlight(ctx, reviewID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: toggle review highlight")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	return s.load(ctx, reviewID)
}

func (s *service) DeleteReview(ctx context.Context, reviewID uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, reviewID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete review")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*ReviewDTO, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load review")
	}
	dto := fromModel(review)
	return &dto, nil
}

func alreadyReviewed() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this product")
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
