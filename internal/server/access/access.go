// Package access implements the access control engine: a family of pure
// decision functions over (identity, resource state). The engine only reads
// resource state through the storage interfaces and never mutates anything;
// a nil return means ALLOW, an apperr return means DENY with a stable reason.
//
// Rules apply in a fixed precedence order:
//
//  1. admin override: admins pass every check after resource existence
//  2. category lock: denies all create actions under the category
//  3. category privacy: grant level gates read and write (owner exempt)
//  4. topic lock: denies creating replies
//  5. ownership: lock/privacy toggles and best-reply selection
//
// Idempotent-toggle conflicts and grant upsert conflicts are detected at the
// storage layer (conditional updates) and are not part of this package.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/avlahov/forum-api/internal/models"
	"github.com/avlahov/forum-api/internal/server/apperr"
	"github.com/avlahov/forum-api/internal/server/storage"
)

// Engine decides ALLOW/DENY for actions against forum resources
type Engine struct {
	categories storage.CategoryStorage
	topics     storage.TopicStorage
	replies    storage.ReplyStorage
	grants     storage.GrantStorage
	users      storage.UserStorage
}

// NewEngine creates a new access control engine reading resource state
// through the given storages
func NewEngine(
	categories storage.CategoryStorage,
	topics storage.TopicStorage,
	replies storage.ReplyStorage,
	grants storage.GrantStorage,
	users storage.UserStorage,
) *Engine {
	return &Engine{
		categories: categories,
		topics:     topics,
		replies:    replies,
		grants:     grants,
		users:      users,
	}
}

// ViewCategory decides whether the identity may read the category and
// returns the category row on ALLOW
func (e *Engine) ViewCategory(ctx context.Context, identity models.Identity, categoryID int64) (*models.Category, error) {
	category, err := e.getCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if err := e.canReadCategory(ctx, identity, category); err != nil {
		return nil, err
	}

	return category, nil
}

// ViewTopic decides whether the identity may read the topic (gated by the
// parent category's privacy rules) and returns the topic row on ALLOW
func (e *Engine) ViewTopic(ctx context.Context, identity models.Identity, topicID int64) (*models.Topic, error) {
	topic, err := e.getTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	category, err := e.getCategory(ctx, topic.CategoryID)
	if err != nil {
		return nil, err
	}

	if err := e.canReadCategory(ctx, identity, category); err != nil {
		return nil, err
	}

	return topic, nil
}

// CreateTopic decides whether the identity may create a topic in the category
func (e *Engine) CreateTopic(ctx context.Context, identity models.Identity, categoryID int64) error {
	category, err := e.getCategory(ctx, categoryID)
	if err != nil {
		return err
	}

	return e.canWriteCategory(ctx, identity, category)
}

// CreateReply decides whether the identity may reply to the topic and
// returns the topic row on ALLOW. The parent category's lock and privacy
// rules run first; the topic lock check runs last.
func (e *Engine) CreateReply(ctx context.Context, identity models.Identity, topicID int64) (*models.Topic, error) {
	topic, err := e.getTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	category, err := e.getCategory(ctx, topic.CategoryID)
	if err != nil {
		return nil, err
	}

	if err := e.canWriteCategory(ctx, identity, category); err != nil {
		return nil, err
	}

	if !identity.IsAdmin && topic.IsLocked {
		return nil, apperr.Forbidden(apperr.ReasonTopicLocked, "topic is locked")
	}

	return topic, nil
}

// ManageCategory decides whether the identity may toggle the category's lock
// or privacy flags: admin or category owner, evaluated after existence
func (e *Engine) ManageCategory(ctx context.Context, identity models.Identity, categoryID int64) (*models.Category, error) {
	category, err := e.getCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if !identity.IsAdmin && category.CreatorID != identity.UserID {
		return nil, apperr.Forbidden(apperr.ReasonOwnerOnly, "only the category owner may do this")
	}

	return category, nil
}

// ManageTopic decides whether the identity may toggle the topic's lock flag:
// admin or topic owner, evaluated after existence
func (e *Engine) ManageTopic(ctx context.Context, identity models.Identity, topicID int64) (*models.Topic, error) {
	topic, err := e.getTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	if !identity.IsAdmin && topic.CreatorID != identity.UserID {
		return nil, apperr.Forbidden(apperr.ReasonOwnerOnly, "only the topic owner may do this")
	}

	return topic, nil
}

// ChooseBestReply decides whether the identity may mark the reply as the
// topic's accepted answer. The reply must belong to the topic; that
// referential check runs before the ownership check.
func (e *Engine) ChooseBestReply(ctx context.Context, identity models.Identity, topicID, replyID int64) error {
	topic, err := e.getTopic(ctx, topicID)
	if err != nil {
		return err
	}

	reply, err := e.getReply(ctx, replyID)
	if err != nil {
		return err
	}
	if reply.TopicID != topic.ID {
		return apperr.Conflict("reply does not belong to this topic")
	}

	if !identity.IsAdmin && topic.CreatorID != identity.UserID {
		return apperr.Forbidden(apperr.ReasonOwnerOnly, "only the topic owner may choose a best reply")
	}

	return nil
}

// VoteOnReply decides whether the identity may vote on the reply and returns
// the reply row on ALLOW. Voting requires read access to the parent category;
// lock state does not gate votes.
func (e *Engine) VoteOnReply(ctx context.Context, identity models.Identity, replyID int64) (*models.Reply, error) {
	reply, err := e.getReply(ctx, replyID)
	if err != nil {
		return nil, err
	}

	topic, err := e.getTopic(ctx, reply.TopicID)
	if err != nil {
		return nil, err
	}

	category, err := e.getCategory(ctx, topic.CategoryID)
	if err != nil {
		return nil, err
	}

	if err := e.canReadCategory(ctx, identity, category); err != nil {
		return nil, err
	}

	return reply, nil
}

// ManageGrant decides whether the identity may grant or revoke access on the
// category. Per contract: category must exist and be private, the target user
// must exist, and the caller must be an admin.
func (e *Engine) ManageGrant(ctx context.Context, identity models.Identity, categoryID, targetUserID int64) error {
	category, err := e.getCategory(ctx, categoryID)
	if err != nil {
		return err
	}

	if !category.IsPrivate {
		return apperr.Conflict("category is public; grants only apply to private categories")
	}

	if _, err := e.users.GetUserByID(ctx, targetUserID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.NotFound("user not found")
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if !identity.IsAdmin {
		return apperr.Forbidden(apperr.ReasonAdminOnly, "only admins may manage category access")
	}

	return nil
}

// ViewGrants decides whether the identity may list the category's grants:
// admin or category owner
func (e *Engine) ViewGrants(ctx context.Context, identity models.Identity, categoryID int64) error {
	category, err := e.getCategory(ctx, categoryID)
	if err != nil {
		return err
	}

	if !identity.IsAdmin && category.CreatorID != identity.UserID {
		return apperr.Forbidden(apperr.ReasonOwnerOnly, "only the category owner may list grants")
	}

	return nil
}

// ViewConversation decides whether the identity may read its conversation
// with the other user. Conversations are only addressable by their own
// participants, so the check reduces to the other user existing.
func (e *Engine) ViewConversation(ctx context.Context, identity models.Identity, otherUserID int64) error {
	if _, err := e.users.GetUserByID(ctx, otherUserID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.NotFound("user not found")
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	return nil
}

// canReadCategory applies the read rules: admins, owners and public
// categories always pass; private categories require any grant level.
func (e *Engine) canReadCategory(ctx context.Context, identity models.Identity, category *models.Category) error {
	if identity.IsAdmin || category.CreatorID == identity.UserID || !category.IsPrivate {
		return nil
	}

	if _, err := e.getGrant(ctx, identity.UserID, category.ID); err != nil {
		if errors.Is(err, storage.ErrGrantNotFound) {
			return apperr.Forbidden(apperr.ReasonCategoryPrivate, "category is private")
		}
		return err
	}

	// read and write grants both allow reading
	return nil
}

// canWriteCategory applies the create rules in precedence order:
// admin override, then lock, then privacy with a write-level grant
func (e *Engine) canWriteCategory(ctx context.Context, identity models.Identity, category *models.Category) error {
	if identity.IsAdmin {
		return nil
	}

	// lock precedes privacy and applies regardless of grant
	if category.IsLocked {
		return apperr.Forbidden(apperr.ReasonCategoryLocked, "category is locked")
	}

	if !category.IsPrivate || category.CreatorID == identity.UserID {
		return nil
	}

	grant, err := e.getGrant(ctx, identity.UserID, category.ID)
	if err != nil {
		if errors.Is(err, storage.ErrGrantNotFound) {
			return apperr.Forbidden(apperr.ReasonCategoryPrivate, "category is private")
		}
		return err
	}
	if grant.AccessType != models.AccessWrite {
		return apperr.Forbidden(apperr.ReasonReadOnlyAccess, "write access required")
	}

	return nil
}

func (e *Engine) getCategory(ctx context.Context, id int64) (*models.Category, error) {
	category, err := e.categories.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			return nil, apperr.NotFound("category not found")
		}
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}
	return category, nil
}

func (e *Engine) getTopic(ctx context.Context, id int64) (*models.Topic, error) {
	topic, err := e.topics.GetTopicByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrTopicNotFound) {
			return nil, apperr.NotFound("topic not found")
		}
		return nil, fmt.Errorf("failed to look up topic: %w", err)
	}
	return topic, nil
}

func (e *Engine) getReply(ctx context.Context, id int64) (*models.Reply, error) {
	reply, err := e.replies.GetReplyByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrReplyNotFound) {
			return nil, apperr.NotFound("reply not found")
		}
		return nil, fmt.Errorf("failed to look up reply: %w", err)
	}
	return reply, nil
}

func (e *Engine) getGrant(ctx context.Context, userID, categoryID int64) (*models.AccessGrant, error) {
	grant, err := e.grants.GetGrant(ctx, userID, categoryID)
	if err != nil {
		if errors.Is(err, storage.ErrGrantNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to look up grant: %w", err)
	}
	return grant, nil
}
