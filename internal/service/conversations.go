package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/cutdesk/cutdesk/internal/apiclient"
	"github.com/cutdesk/cutdesk/internal/domain/model"
	apperrors "github.com/cutdesk/cutdesk/internal/errors"
)

// Scope selects the user or admin side of an endpoint family.
type Scope string

const (
	ScopeUser  Scope = "user"
	ScopeAdmin Scope = "admin"
)

func (s Scope) valid() bool { return s == ScopeUser || s == ScopeAdmin }

// ConversationServiceOptions groups dependencies for ConversationService.
type ConversationServiceOptions struct {
	Client *apiclient.Client
	Logger *slog.Logger // optional
}

// ConversationService handles support threads and their messages.
type ConversationService struct {
	api    *apiclient.Client
	logger *slog.Logger
}

// NewConversationService constructs a ConversationService.
func NewConversationService(opts ConversationServiceOptions) (*ConversationService, error) {
	if opts.Client == nil {
		return nil, errClientRequired
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationService{api: opts.Client, logger: logger.With("component", "conversations")}, nil
}

// List returns conversations. The query only applies to the admin scope.
func (s *ConversationService) List(ctx context.Context, scope Scope, q model.ConversationQuery) ([]model.Conversation, error) {
	path, err := conversationsPath(scope)
	if err != nil {
		return nil, err
	}
	var convs []model.Conversation
	if scope == ScopeAdmin {
		if q.Status != "" && !q.Status.Valid() {
			return nil, apperrors.ValidationField("status", "unknown conversation status "+string(q.Status))
		}
		convs, err = apiclient.GetByQuery[[]model.Conversation](ctx, s.api, path, q.Params())
	} else {
		convs, err = apiclient.GenericGet[[]model.Conversation](ctx, s.api, path)
	}
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// Get finds one conversation in the list for scope.
func (s *ConversationService) Get(ctx context.Context, scope Scope, id string) (*model.Conversation, error) {
	convs, err := s.List(ctx, scope, model.ConversationQuery{})
	if err != nil {
		return nil, err
	}
	for i := range convs {
		if convs[i].PublicID == id {
			return &convs[i], nil
		}
	}
	return nil, apperrors.NotFoundf("conversation %s not found", id)
}

// Messages returns the messages of a conversation, oldest first as served.
func (s *ConversationService) Messages(ctx context.Context, scope Scope, id string) ([]model.Message, error) {
	path, err := messagesPath(scope, id)
	if err != nil {
		return nil, err
	}
	msgs, err := apiclient.GenericGet[[]model.Message](ctx, s.api, path)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// Send posts a message to a conversation.
func (s *ConversationService) Send(ctx context.Context, scope Scope, id, content string) (*model.Message, error) {
	path, err := messagesPath(scope, id)
	if err != nil {
		return nil, err
	}
	req, err := model.NewSendMessageRequest(content)
	if err != nil {
		return nil, err
	}
	msg, err := apiclient.GenericPost[model.Message](ctx, s.api, path, req)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &msg, nil
}

// Open starts a new user conversation, optionally about an order.
func (s *ConversationService) Open(ctx context.Context, req model.OpenConversationRequest) (*model.Conversation, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	conv, err := apiclient.GenericPost[model.Conversation](ctx, s.api, "user/conversations", req)
	if err != nil {
		return nil, fmt.Errorf("open conversation: %w", err)
	}
	s.logger.InfoContext(ctx, "conversation opened", "conversation", conv.PublicID)
	return &conv, nil
}

// SetStatus opens or closes a conversation as admin.
func (s *ConversationService) SetStatus(ctx context.Context, id string, status model.ConversationStatus) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.ValidationField("id", "conversation id is required")
	}
	if !status.Valid() {
		return apperrors.ValidationField("status", "status must be open or closed")
	}
	body := map[string]any{"status": status}
	if _, err := apiclient.GenericPatch[json.RawMessage](ctx, s.api, itemPath("admin/conversations", id), body); err != nil {
		return fmt.Errorf("set conversation status: %w", err)
	}
	return nil
}

func conversationsPath(scope Scope) (string, error) {
	if !scope.valid() {
		return "", apperrors.ValidationField("scope", "scope must be user or admin")
	}
	return string(scope) + "/conversations", nil
}

func messagesPath(scope Scope, id string) (string, error) {
	base, err := conversationsPath(scope)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(id) == "" {
		return "", apperrors.ValidationField("id", "conversation id is required")
	}
	return itemPath(base, id) + "/messages", nil
}

func escapeSegment(s string) string {
	return url.PathEscape(strings.TrimSpace(s))
}
