package services

import (
	"context"
	"fmt"
	"time"

	"eventmarket/internal/fsm"
	"eventmarket/internal/models"
)

type EventRequestService struct {
	RequestRepo  EventRequestStore
	ProviderRepo ProviderStore
	CategoryRepo CategoryStore
	Notifier     Notifier
	Metrics      Recorder
	Now          func() time.Time
}

func (s *EventRequestService) CreateEventRequest(ctx context.Context, actor models.User, in models.CreateEventRequest) (models.EventRequest, error) {
	if actor.Role != models.RoleCustomer {
		return models.EventRequest{}, fmt.Errorf("%w: only customers can create requests", models.ErrForbidden)
	}
	now := nowUTC(s.Now)
	err := validateStruct(in)
	if err != nil && !isValidation(err) {
		return models.EventRequest{}, err
	}
	if !in.EventDate.IsZero() && in.EventDate.Before(now) {
		err = mergeFields(err, "eventDate", "must not be in the past")
	}
	if err != nil {
		return models.EventRequest{}, err
	}

	provider, err := s.ProviderRepo.GetProviderByID(ctx, in.ProviderID)
	if err != nil {
		return models.EventRequest{}, err
	}
	if _, err := s.CategoryRepo.GetCategoryByID(ctx, in.CategoryID); err != nil {
		return models.EventRequest{}, err
	}

	req, err := s.RequestRepo.CreateEventRequest(ctx, models.EventRequest{
		CustomerID:  actor.ID,
		ProviderID:  provider.ID,
		CategoryID:  in.CategoryID,
		Title:       in.Title,
		Description: in.Description,
		EventDate:   in.EventDate.UTC(),
		Status:      fsm.StatusPending,
		CreatedAt:   now,
	})
	if err != nil {
		return models.EventRequest{}, err
	}

	s.metrics().RequestCreated()
	s.notifier().Notify([]int{provider.UserID}, models.RequestEvent{
		Type:    models.EventRequestCreated,
		Request: req,
		At:      now,
	})
	return req, nil
}

// TransitionStatus moves a request to target on behalf of actor. The actor
// must be the request's customer or the user owning its provider profile.
func (s *EventRequestService) TransitionStatus(ctx context.Context, actor models.User, requestID int, target string) (models.EventRequest, error) {
	req, err := s.RequestRepo.GetEventRequestByID(ctx, requestID)
	if err != nil {
		return models.EventRequest{}, err
	}
	provider, err := s.ProviderRepo.GetProviderByID(ctx, req.ProviderID)
	if err != nil {
		return models.EventRequest{}, err
	}

	var side fsm.Actor
	switch actor.ID {
	case req.CustomerID:
		side = fsm.ActorCustomer
	case provider.UserID:
		side = fsm.ActorProvider
	default:
		return models.EventRequest{}, fmt.Errorf("%w: not a party to request %d", models.ErrForbidden, requestID)
	}

	if err := fsm.Check(req.Status, target, side); err != nil {
		return models.EventRequest{}, err
	}
	updated, err := s.RequestRepo.UpdateStatus(ctx, req.ID, req.Status, target)
	if err != nil {
		return models.EventRequest{}, err
	}

	s.metrics().RequestTransitioned(req.Status, updated.Status)
	s.notifier().Notify([]int{updated.CustomerID, provider.UserID}, models.RequestEvent{
		Type:    models.EventRequestStatusChanged,
		Request: updated,
		At:      nowUTC(s.Now),
	})
	return updated, nil
}

func (s *EventRequestService) GetRequestsByCustomer(ctx context.Context, customerID int) ([]models.EventRequest, error) {
	return s.RequestRepo.GetEventRequestsByCustomer(ctx, customerID)
}

// GetRequestsForProviderUser lists the requests addressed to the provider
// profile owned by the actor.
func (s *EventRequestService) GetRequestsForProviderUser(ctx context.Context, actor models.User) ([]models.EventRequest, error) {
	if actor.Role != models.RoleProvider {
		return nil, fmt.Errorf("%w: provider account required", models.ErrForbidden)
	}
	provider, err := s.ProviderRepo.GetProviderByUserID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.RequestRepo.GetEventRequestsByProvider(ctx, provider.ID)
}

func (s *EventRequestService) notifier() Notifier {
	if s.Notifier == nil {
		return nopNotifier{}
	}
	return s.Notifier
}

func (s *EventRequestService) metrics() Recorder {
	if s.Metrics == nil {
		return nopRecorder{}
	}
	return s.Metrics
}
