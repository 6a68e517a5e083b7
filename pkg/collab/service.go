//go:generate go run go.uber.org/mock/mockgen -source=service.go -destination=../../mocks/mock_collab.go -package=mocks
// Package collab implements the share protocol on top of the relay
// client: the notify phase for items this instance owns and the pull
// phase for items shared with it.
package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Guarrdon/portfolioplanner-sub001/pkg/client"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/protocol"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/store"
	"github.com/google/uuid"
)

// Sender routes an envelope through the relay. client.Client satisfies it.
type Sender interface {
	Send(env protocol.Envelope) error
}

// ItemFetcher performs the pull phase against another instance's origin.
type ItemFetcher interface {
	Fetch(ctx context.Context, ref protocol.ShareReference) (json.RawMessage, error)
}

// Notifier surfaces collaboration activity to the instance's user.
type Notifier interface {
	Notify(message string)
}

type slogNotifier struct{ log *slog.Logger }

func (n slogNotifier) Notify(message string) { n.log.Info(message) }

type Service struct {
	participantID string
	originAddress string
	shareToken    string

	items    store.IItemStore
	shared   store.ISharedStore
	sender   Sender
	fetcher  ItemFetcher
	notifier Notifier
	logger   *slog.Logger
}

func NewService(
	participantID, originAddress, shareToken string,
	items store.IItemStore,
	shared store.ISharedStore,
	sender Sender,
	fetcher ItemFetcher,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	log := logger.With(slog.String("component", "collab"))
	if notifier == nil {
		notifier = slogNotifier{log: log}
	}
	return &Service{
		participantID: participantID,
		originAddress: originAddress,
		shareToken:    shareToken,
		items:         items,
		shared:        shared,
		sender:        sender,
		fetcher:       fetcher,
		notifier:      notifier,
		logger:        log,
	}
}

// ShareItem starts the notify phase: the grant is recorded locally and the
// recipients get a reference to pull from, never the item data itself.
// A relay outage does not undo the local grant; the notice is simply lost.
func (s *Service) ShareItem(ctx context.Context, itemID string, recipients []string, accessLevel string) error {
	item, err := s.items.Get(itemID)
	if err != nil {
		return fmt.Errorf("share item: %w", err)
	}
	for _, recipient := range recipients {
		if err := s.items.AddShare(store.ShareGrant{
			ItemID:        item.ID,
			ParticipantID: recipient,
			AccessLevel:   accessLevel,
			Token:         s.shareToken,
		}); err != nil {
			return fmt.Errorf("record share grant: %w", err)
		}
	}

	ref := protocol.ShareReference{
		ItemID:         item.ID,
		OriginFetchURL: fmt.Sprintf("%s/items/%s", s.originAddress, item.ID),
		AccessLevel:    accessLevel,
		ShareToken:     s.shareToken,
	}
	return s.sendEvent(protocol.EventItemShared, recipients, ref)
}

// CommentOnItem adds a comment to an item this instance owns and fans the
// comment out inline to every participant holding a copy.
func (s *Service) CommentOnItem(ctx context.Context, itemID, text string) (store.Comment, error) {
	comment := store.Comment{
		ID:       uuid.NewString(),
		AuthorID: s.participantID,
		Text:     text,
		At:       time.Now().UTC(),
	}
	if _, err := s.items.AddComment(itemID, comment); err != nil {
		return store.Comment{}, fmt.Errorf("add comment: %w", err)
	}

	recipients, err := s.items.SharedWith(itemID)
	if err != nil {
		return comment, fmt.Errorf("list share recipients: %w", err)
	}
	if len(recipients) == 0 {
		return comment, nil
	}
	return comment, s.sendEvent(protocol.EventCommentAdded, recipients, CommentPayload{
		ItemID:    itemID,
		CommentID: comment.ID,
		AuthorID:  comment.AuthorID,
		Text:      comment.Text,
		At:        comment.At,
	})
}

// UpdateItem stores new data for an owned item and pushes it inline to
// every participant holding a copy.
func (s *Service) UpdateItem(ctx context.Context, item store.Item) error {
	if err := s.items.Put(item); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	recipients, err := s.items.SharedWith(item.ID)
	if err != nil {
		return fmt.Errorf("list share recipients: %w", err)
	}
	if len(recipients) == 0 {
		return nil
	}
	return s.sendEvent(protocol.EventItemUpdated, recipients, UpdatePayload{
		ItemID: item.ID,
		Data:   item.Data,
	})
}

// RevokeShare withdraws one participant's grant and tells them to drop
// their copy.
func (s *Service) RevokeShare(ctx context.Context, itemID, participantID string) error {
	if err := s.items.RevokeShare(itemID, participantID); err != nil {
		return fmt.Errorf("revoke share: %w", err)
	}
	return s.sendEvent(protocol.EventShareRevoked, []string{participantID}, RevokePayload{ItemID: itemID})
}

// HandleItemShared runs the pull phase for an inbound share notice: fetch
// the full item from its origin and materialize a local copy. A failed
// fetch materializes nothing; there is no retry, the next share or update
// event is the recovery path.
func (s *Service) HandleItemShared(ctx context.Context, env protocol.Envelope) error {
	ref, err := protocol.ShareReferenceFromData(env.Data)
	if err != nil {
		return fmt.Errorf("decode share reference: %w", err)
	}

	data, err := s.fetcher.Fetch(ctx, ref)
	if err != nil {
		s.logger.Warn("pull of shared item failed, nothing materialized",
			slog.String("itemID", ref.ItemID),
			slog.String("from", env.FromParticipant),
			slog.Any("error", err),
		)
		return fmt.Errorf("pull shared item %s: %w", ref.ItemID, err)
	}

	if err := s.shared.Materialize(store.SharedItem{
		ID:              ref.ItemID,
		FromParticipant: env.FromParticipant,
		AccessLevel:     ref.AccessLevel,
		Data:            data,
	}); err != nil {
		return fmt.Errorf("materialize shared item %s: %w", ref.ItemID, err)
	}
	s.notifier.Notify(fmt.Sprintf("%s shared item %s with you", env.FromParticipant, ref.ItemID))
	return nil
}

// HandleCommentAdded applies an inline comment to the local copy, or to
// the owned item when the comment comes back from a share recipient.
func (s *Service) HandleCommentAdded(ctx context.Context, env protocol.Envelope) error {
	var payload CommentPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return fmt.Errorf("decode comment payload: %w", err)
	}
	comment := store.Comment{
		ID:       payload.CommentID,
		AuthorID: payload.AuthorID,
		Text:     payload.Text,
		At:       payload.At,
	}

	err := s.shared.AddComment(payload.ItemID, comment)
	if errors.Is(err, store.ErrNotFound) {
		_, err = s.items.AddComment(payload.ItemID, comment)
	}
	if err != nil {
		return fmt.Errorf("apply comment to item %s: %w", payload.ItemID, err)
	}
	s.notifier.Notify(fmt.Sprintf("%s commented on item %s", env.FromParticipant, payload.ItemID))
	return nil
}

// HandleItemUpdated replaces the local copy's data with the inline payload.
func (s *Service) HandleItemUpdated(ctx context.Context, env protocol.Envelope) error {
	var payload UpdatePayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return fmt.Errorf("decode update payload: %w", err)
	}
	if err := s.shared.ApplyUpdate(payload.ItemID, payload.Data); err != nil {
		return fmt.Errorf("apply update to item %s: %w", payload.ItemID, err)
	}
	s.notifier.Notify(fmt.Sprintf("%s updated item %s", env.FromParticipant, payload.ItemID))
	return nil
}

// HandleShareRevoked drops the local copy of a revoked item.
func (s *Service) HandleShareRevoked(ctx context.Context, env protocol.Envelope) error {
	var payload RevokePayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return fmt.Errorf("decode revoke payload: %w", err)
	}
	if err := s.shared.Delete(payload.ItemID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("drop revoked item %s: %w", payload.ItemID, err)
	}
	s.notifier.Notify(fmt.Sprintf("%s revoked your access to item %s", env.FromParticipant, payload.ItemID))
	return nil
}

// sendEvent routes one envelope, treating a disconnected relay as a
// degraded no-op so local state changes always stand.
func (s *Service) sendEvent(eventType protocol.EventType, recipients []string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	err = s.sender.Send(protocol.Envelope{
		Type:            eventType,
		FromParticipant: s.participantID,
		ToParticipants:  recipients,
		Data:            data,
	})
	if errors.Is(err, client.ErrNotConnected) {
		s.logger.Warn("relay unavailable, event not sent",
			slog.String("type", string(eventType)),
			slog.Int("recipients", len(recipients)),
		)
		return nil
	}
	return err
}
