package service

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/myc-roast/server-go/internal/errors"
	"github.com/myc-roast/server-go/internal/model"
	"github.com/myc-roast/server-go/internal/repository"
)

const (
	featuredRotation = 7 * 24 * time.Hour
	featuredWindow   = 24 * time.Hour
	industryLimit    = 3
	wildcardPoolSize = 5
)

// MatchingService surfaces roasters to applicants and prioritizes inbound
// requests for roasters. Matching is deliberately simple: one featured
// roaster rotated daily, same-industry picks, and a random wildcard.
type MatchingService struct {
	profiles repository.ProfileRepository
	meetings repository.MeetingRepository
}

func NewMatchingService(profiles repository.ProfileRepository, meetings repository.MeetingRepository) *MatchingService {
	return &MatchingService{profiles: profiles, meetings: meetings}
}

// Matches is the applicant-facing discovery payload.
type Matches struct {
	Featured        *model.Profile  `json:"featured"`
	IndustryMatches []model.Profile `json:"industryMatches"`
	Wildcard        *model.Profile  `json:"wildcard"`
}

// RequestedMeeting pairs a pending request with its applicant's profile.
type RequestedMeeting struct {
	model.Meeting
	Applicant *model.ProfileSummary `json:"applicant,omitempty"`
}

// PriorityQueue orders a roaster's inbound requests for their dashboard.
type PriorityQueue struct {
	IndustryMatches []RequestedMeeting `json:"industryMatches"`
	RecentRequests  []RequestedMeeting `json:"recentRequests"`
	Wildcard        *RequestedMeeting  `json:"wildcard"`
}

// FeaturedRoaster returns today's featured roaster, electing a new one when
// the current feature window has lapsed. Roasters not featured within the
// last week are eligible.
func (s *MatchingService) FeaturedRoaster(ctx context.Context) (*model.Profile, error) {
	now := time.Now()
	featured, err := s.profiles.FindFeatured(ctx, now)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if featured != nil {
		return featured, nil
	}

	candidate, err := s.profiles.FindFeatureCandidate(ctx, now.Add(-featuredRotation))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if candidate == nil {
		return nil, nil
	}

	if err := s.profiles.MarkFeatured(ctx, candidate.ID, now.Add(featuredWindow), now); err != nil {
		// Someone else may have elected concurrently; the candidate is
		// still a reasonable answer for this response.
		log.Warn().Err(err).Str("profileId", candidate.ID).Msg("failed to persist featured election")
	}
	return candidate, nil
}

// MatchesForApplicant assembles the discovery view: featured roaster,
// same-industry roasters, and a wildcard outside the applicant's industry.
func (s *MatchingService) MatchesForApplicant(ctx context.Context, applicantID string) (*Matches, error) {
	applicant, err := s.profiles.FindByID(ctx, applicantID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if applicant == nil {
		return nil, apperrors.NotFound("Profile")
	}

	matches := &Matches{IndustryMatches: []model.Profile{}}

	featured, err := s.FeaturedRoaster(ctx)
	if err != nil {
		return nil, err
	}
	if featured != nil && featured.ID != applicantID {
		matches.Featured = featured
	}

	if applicant.Industry != nil && *applicant.Industry != "" {
		industry, err := s.profiles.FindAvailableByIndustry(ctx, *applicant.Industry, industryLimit+1)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		for _, p := range industry {
			if p.ID == applicantID || (matches.Featured != nil && p.ID == matches.Featured.ID) {
				continue
			}
			matches.IndustryMatches = append(matches.IndustryMatches, p)
			if len(matches.IndustryMatches) == industryLimit {
				break
			}
		}
	}

	pool, err := s.profiles.FindAvailableReviewers(ctx, wildcardPoolSize*2)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	candidates := make([]model.Profile, 0, len(pool))
	for _, p := range pool {
		if p.ID == applicantID {
			continue
		}
		if matches.Featured != nil && p.ID == matches.Featured.ID {
			continue
		}
		if applicant.Industry != nil && p.Industry != nil && *p.Industry == *applicant.Industry {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) > 0 {
		if len(candidates) > wildcardPoolSize {
			candidates = candidates[:wildcardPoolSize]
		}
		pick := candidates[rand.Intn(len(candidates))]
		matches.Wildcard = &pick
	}

	return matches, nil
}

// PriorityQueueForRoaster buckets a roaster's pending requests: founders in
// the same industry first, then the most recent, plus one random wildcard
// to keep discovery from going stale.
func (s *MatchingService) PriorityQueueForRoaster(ctx context.Context, reviewerID string) (*PriorityQueue, error) {
	roaster, err := s.profiles.FindByID(ctx, reviewerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if roaster == nil {
		return nil, apperrors.NotFound("Profile")
	}

	pending, err := s.meetings.FindRequestedByReviewer(ctx, reviewerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	ids := make([]string, 0, len(pending))
	for _, m := range pending {
		ids = append(ids, m.ApplicantID)
	}
	applicants, err := s.profiles.FindSummariesByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	requests := make([]RequestedMeeting, 0, len(pending))
	for _, m := range pending {
		req := RequestedMeeting{Meeting: m}
		if applicant, ok := applicants[m.ApplicantID]; ok {
			a := applicant
			req.Applicant = &a
		}
		requests = append(requests, req)
	}

	queue := &PriorityQueue{
		IndustryMatches: []RequestedMeeting{},
		RecentRequests:  []RequestedMeeting{},
	}

	taken := make(map[string]bool, len(requests))
	if roaster.Industry != nil && *roaster.Industry != "" {
		for _, req := range requests {
			if len(queue.IndustryMatches) == 2 {
				break
			}
			if req.Applicant != nil && req.Applicant.Industry != nil && *req.Applicant.Industry == *roaster.Industry {
				queue.IndustryMatches = append(queue.IndustryMatches, req)
				taken[req.ID] = true
			}
		}
	}

	for _, req := range requests {
		if len(queue.RecentRequests) == 2 {
			break
		}
		if !taken[req.ID] {
			queue.RecentRequests = append(queue.RecentRequests, req)
			taken[req.ID] = true
		}
	}

	remaining := make([]RequestedMeeting, 0, len(requests))
	for _, req := range requests {
		if !taken[req.ID] {
			remaining = append(remaining, req)
		}
	}
	if len(remaining) > 0 {
		if len(remaining) > wildcardPoolSize {
			remaining = remaining[:wildcardPoolSize]
		}
		pick := remaining[rand.Intn(len(remaining))]
		queue.Wildcard = &pick
	}

	return queue, nil
}
