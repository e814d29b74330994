package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkbio/internal/models/db_models"
	"linkbio/internal/repositories"
	mem "linkbio/pkg/memcache"
	"linkbio/pkg/utils"
)

const (
	AccountTypeFree  = "Free"
	AccountTypeAdmin = "Admin"

	GracePeriod   = 7 * utils.Day
	FreeLinkLimit = 2

	entitlementTTL = 5 * time.Minute
)

var KnownThemes = []string{
	db_models.DefaultTheme,
	"dark.css",
	"light.css",
	"neon_glow.css",
	"minimalist_monochrome.css",
	"gradient_bliss.css",
	"retro_pixel.css",
	"eco_natural.css",
}

// ActiveSubscription returns the active or cancelled subscription whose end date is
// still in the future, preferring the latest end date.
func ActiveSubscription(subs []db_models.Subscription, now time.Time) *db_models.Subscription {
	var best *db_models.Subscription
	for i := range subs {
		sub := &subs[i]
		if sub.Status != db_models.SubStatusActive && sub.Status != db_models.SubStatusCancelled {
			continue
		}
		end, ok := sub.EndTime()
		if !ok || !end.After(now) {
			continue
		}
		if best == nil || *sub.EndDate > *best.EndDate {
			best = sub
		}
	}
	return best
}

func AccountType(user *db_models.User, subs []db_models.Subscription, now time.Time) string {
	if user != nil && user.IsAdmin {
		return AccountTypeAdmin
	}
	if active := ActiveSubscription(subs, now); active != nil {
		return active.Plan.Name
	}
	return AccountTypeFree
}

// GraceStatus reports whether the most recent subscription ended less than
// GracePeriod ago. The boundary is inclusive. The admin flag plays no part.
func GraceStatus(subs []db_models.Subscription, now time.Time) (bool, *time.Time) {
	if ActiveSubscription(subs, now) != nil {
		return false, nil
	}

	var latest *time.Time
	for i := range subs {
		end, ok := subs[i].EndTime()
		if !ok {
			continue
		}
		if latest == nil || end.After(*latest) {
			e := end
			latest = &e
		}
	}
	if latest == nil || !latest.Before(now) {
		return false, nil
	}

	graceEnd := latest.Add(GracePeriod)
	if now.After(graceEnd) {
		return false, nil
	}
	return true, &graceEnd
}

func CanAddLink(accountType string, linkCount int64) bool {
	if accountType != AccountTypeFree {
		return true
	}
	return linkCount < FreeLinkLimit
}

func IsKnownTheme(theme string) bool {
	for _, t := range KnownThemes {
		if t == theme {
			return true
		}
	}
	return false
}

func CanUseTheme(accountType, theme string) bool {
	if theme == db_models.DefaultTheme || accountType == AccountTypeAdmin {
		return true
	}
	return accountType != AccountTypeFree
}

type Entitlement struct {
	UserID       uuid.UUID  `json:"user_id"`
	AccountType  string     `json:"account_type"`
	ActivePlanID *uuid.UUID `json:"active_plan_id,omitempty"`
	ActiveStatus string     `json:"active_status,omitempty"`
	ActiveUntil  *int64     `json:"active_until,omitempty"`
	InGrace      bool       `json:"in_grace"`
	GraceEnd     *int64     `json:"grace_end,omitempty"`
}

func (e *Entitlement) IsPremium() bool {
	return e.AccountType != AccountTypeFree
}

// Evaluate derives the entitlement for user at now.
func Evaluate(user *db_models.User, subs []db_models.Subscription, now time.Time) *Entitlement {
	ent := &Entitlement{
		UserID:      user.ID,
		AccountType: AccountType(user, subs, now),
	}
	if active := ActiveSubscription(subs, now); active != nil {
		planID := active.PlanID
		ent.ActivePlanID = &planID
		ent.ActiveStatus = string(active.Status)
		ent.ActiveUntil = active.EndDate
	}
	if inGrace, graceEnd := GraceStatus(subs, now); inGrace {
		ent.InGrace = true
		ent.GraceEnd = utils.UnixPtr(*graceEnd)
	}
	return ent
}

type EntitlementService interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*Entitlement, error)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type entitlementService struct {
	users repositories.UserRepository
	subs  repositories.SubscriptionRepository
	cache mem.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewEntitlementService(
	users repositories.UserRepository,
	subs repositories.SubscriptionRepository,
	cache mem.Store,
	log *zap.Logger,
) EntitlementService {
	return &entitlementService{
		users: users,
		subs:  subs,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

func entitlementKey(userID uuid.UUID) string {
	return "entitlement:" + userID.String()
}

func (s *entitlementService) Resolve(ctx context.Context, userID uuid.UUID) (*Entitlement, error) {
	key := entitlementKey(userID)

	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn("entitlement cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
	} else if ok {
		var ent Entitlement
		if err := json.Unmarshal(raw, &ent); err == nil {
			return &ent, nil
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}

	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	now := s.now()
	ent := Evaluate(user, subs, now)

	if raw, err := json.Marshal(ent); err == nil {
		if err := s.cache.Set(ctx, key, raw, cacheTTL(ent, now)); err != nil {
			s.log.Warn("entitlement cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	return ent, nil
}

func (s *entitlementService) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Delete(ctx, entitlementKey(userID)); err != nil {
		s.log.Warn("entitlement cache invalidation failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

// cacheTTL never lets a cached entitlement outlive the boundary at which it would change.
func cacheTTL(ent *Entitlement, now time.Time) time.Duration {
	ttl := entitlementTTL
	for _, boundary := range []*int64{ent.ActiveUntil, ent.GraceEnd} {
		if boundary == nil {
			continue
		}
		if left := time.Unix(*boundary, 0).Sub(now); left < ttl {
			ttl = left
		}
	}
	return ttl
}
