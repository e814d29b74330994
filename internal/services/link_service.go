package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkbio/internal/models/db_models"
	"linkbio/internal/models/request_models"
	"linkbio/internal/models/response_models"
	"linkbio/internal/repositories"
	"linkbio/pkg/middleware"
	"linkbio/pkg/utils"
)

type Visitor struct {
	IPAddress string
	UserAgent string
	Referrer  string
}

type LinkService interface {
	ListLinks(ctx context.Context, principal middleware.Principal) ([]response_models.LinkResponse, error)
	AddLink(ctx context.Context, principal middleware.Principal, request request_models.CreateLinkRequest) (response_models.LinkResponse, error)
	DeleteLink(ctx context.Context, principal middleware.Principal, linkID uuid.UUID) error
	PublicProfile(ctx context.Context, username string) (*response_models.PublicProfileResponse, error)
	// FollowLink records a click and returns the link's destination URL.
	FollowLink(ctx context.Context, linkID uuid.UUID, visitor Visitor) (string, error)
}

type linkService struct {
	links        repositories.LinkRepository
	users        repositories.UserRepository
	entitlements EntitlementService
	log          *zap.Logger
}

func NewLinkService(
	links repositories.LinkRepository,
	users repositories.UserRepository,
	entitlements EntitlementService,
	log *zap.Logger,
) LinkService {
	return &linkService{
		links:        links,
		users:        users,
		entitlements: entitlements,
		log:          log,
	}
}

func (s *linkService) toResponse(ctx context.Context, link *db_models.Link) response_models.LinkResponse {
	clicks, err := s.links.CountClicks(ctx, link.ID)
	if err != nil {
		s.log.Warn("count clicks failed", zap.String("link_id", link.ID.String()), zap.Error(err))
	}
	return response_models.LinkResponse{
		ID:        link.ID.String(),
		Title:     link.Title,
		URL:       link.URL,
		Clicks:    clicks,
		CreatedAt: utils.FormatRFC3339(utils.FromUnixSeconds(link.CreatedAt)),
	}
}

func (s *linkService) ListLinks(ctx context.Context, principal middleware.Principal) ([]response_models.LinkResponse, error) {
	links, err := s.links.ListByUser(ctx, principal.UserID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	result := make([]response_models.LinkResponse, 0, len(links))
	for i := range links {
		result = append(result, s.toResponse(ctx, &links[i]))
	}
	return result, nil
}

func (s *linkService) AddLink(ctx context.Context, principal middleware.Principal, request request_models.CreateLinkRequest) (response_models.LinkResponse, error) {
	ent, err := s.entitlements.Resolve(ctx, principal.UserID)
	if err != nil {
		return response_models.LinkResponse{}, err
	}

	count, err := s.links.CountByUser(ctx, principal.UserID)
	if err != nil {
		return response_models.LinkResponse{}, utils.ErrDatabaseError
	}
	if !CanAddLink(ent.AccountType, count) {
		return response_models.LinkResponse{}, utils.ErrLinkLimitReached
	}

	link := &db_models.Link{
		UserID: principal.UserID,
		Title:  request.Title,
		URL:    request.URL,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return response_models.LinkResponse{}, utils.ErrDatabaseError
	}
	return s.toResponse(ctx, link), nil
}

func (s *linkService) DeleteLink(ctx context.Context, principal middleware.Principal, linkID uuid.UUID) error {
	link, err := s.links.FindByID(ctx, linkID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if link == nil {
		return utils.ErrLinkNotFound
	}
	if link.UserID != principal.UserID {
		return utils.ErrForbidden
	}

	if err := s.links.Delete(ctx, linkID); err != nil {
		return utils.ErrDatabaseError
	}
	return nil
}

func (s *linkService) PublicProfile(ctx context.Context, username string) (*response_models.PublicProfileResponse, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}

	if err := s.users.IncrementProfileViews(ctx, user.ID); err != nil {
		s.log.Warn("increment profile views failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	links, err := s.links.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	resp := &response_models.PublicProfileResponse{
		Username:       user.Username,
		Bio:            user.Bio,
		PaymentLink:    user.PaymentLink,
		SelectedTheme:  user.SelectedTheme,
		ProfilePicture: user.ProfilePicture,
		Links:          make([]response_models.LinkResponse, 0, len(links)),
	}
	for i := range links {
		resp.Links = append(resp.Links, s.toResponse(ctx, &links[i]))
	}
	return resp, nil
}

func (s *linkService) FollowLink(ctx context.Context, linkID uuid.UUID, visitor Visitor) (string, error) {
	link, err := s.links.FindByID(ctx, linkID)
	if err != nil {
		return "", utils.ErrDatabaseError
	}
	if link == nil {
		return "", utils.ErrLinkNotFound
	}

	click := &db_models.Click{
		LinkID:    link.ID,
		IPAddress: truncate(visitor.IPAddress, 45),
		UserAgent: truncate(visitor.UserAgent, 200),
		Referrer:  truncate(visitor.Referrer, 200),
	}
	if err := s.links.RecordClick(ctx, click); err != nil {
		s.log.Warn("record click failed", zap.String("link_id", link.ID.String()), zap.Error(err))
	}
	return link.URL, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
