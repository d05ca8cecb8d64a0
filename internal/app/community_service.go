package app

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"healthhub/internal/model"
	"healthhub/internal/paging"
)

type CommunityAPI interface {
	ListGroups(ctx context.Context, req paging.Request) (paging.Page[model.Group], error)
	ListGroupPosts(ctx context.Context, groupID int, req paging.Request) (paging.Page[model.GroupPost], error)
	ListComments(ctx context.Context, postID int, req paging.Request) (paging.Page[model.Comment], error)
	CreatePost(ctx context.Context, groupID int, input model.PostInput) (*model.GroupPost, error)
	UpdatePost(ctx context.Context, postID int, input model.PostInput) (*model.GroupPost, error)
	DeletePost(ctx context.Context, postID int) error
	CreateComment(ctx context.Context, postID int, input model.CommentInput) (*model.Comment, error)
	DeleteComment(ctx context.Context, commentID int) error
	CreateReaction(ctx context.Context, postID int, reactionType string) error
	UpdateReaction(ctx context.Context, postID int, reactionType string) error
	DeleteReaction(ctx context.Context, postID int) error
	CreateReport(ctx context.Context, report model.Report) error
}

type ReactionAction string

const (
	ReactionCreated  ReactionAction = "created"
	ReactionReplaced ReactionAction = "replaced"
	ReactionRemoved  ReactionAction = "removed"
)

type ReactionResult struct {
	PostID       int            `json:"post_id"`
	ReactionType string         `json:"reaction_type"`
	Action       ReactionAction `json:"action"`
}

type CommunityService struct {
	api       CommunityAPI
	groups    *FeedRegistry[model.Group]
	posts     *FeedRegistry[model.GroupPost]
	comments  *FeedRegistry[model.Comment]
	reactions reactionBooks
	alerts    *Alerts
	log       logrus.FieldLogger

	// pendingID hands out negative ids for comments not yet confirmed.
	pendingID atomic.Int64
}

func NewCommunityService(api CommunityAPI, settings FeedSettings, alerts *Alerts, log logrus.FieldLogger) *CommunityService {
	return &CommunityService{
		api:      api,
		groups:   NewFeedRegistry[model.Group](settings, alerts),
		posts:    NewFeedRegistry[model.GroupPost](settings, alerts),
		comments: NewFeedRegistry[model.Comment](settings, alerts),
		alerts:   alerts,
		log:      log,
	}
}

// EvictIdle drops feeds and reaction books not used since cutoff.
func (s *CommunityService) EvictIdle(cutoff time.Time) int {
	return s.groups.EvictIdle(cutoff) +
		s.posts.EvictIdle(cutoff) +
		s.comments.EvictIdle(cutoff) +
		s.reactions.evictIdle(cutoff)
}

func (s *CommunityService) ListGroups(ctx context.Context, userID uint, q FeedQuery) (paging.State[model.Group], error) {
	acc := s.groups.Feed(userID, "groups", s.api.ListGroups)
	return s.groups.Apply(ctx, acc, q)
}

func (s *CommunityService) ListGroupPosts(ctx context.Context, userID uint, groupID int, q FeedQuery) (paging.State[model.GroupPost], error) {
	if groupID <= 0 {
		return paging.State[model.GroupPost]{}, ErrInvalidInput
	}
	return s.posts.Apply(ctx, s.postFeed(userID, groupID), q)
}

func (s *CommunityService) postFeed(userID uint, groupID int) *paging.Accumulator[model.GroupPost] {
	book := s.reactions.For(userID)
	return s.posts.Feed(userID, feedName("group", groupID), func(ctx context.Context, req paging.Request) (paging.Page[model.GroupPost], error) {
		page, err := s.api.ListGroupPosts(ctx, groupID, req)
		if err != nil {
			return page, err
		}
		for _, post := range page.Items {
			book.Set(post.ID, post.MyReaction)
		}
		return page, nil
	})
}

func (s *CommunityService) commentFeed(userID uint, postID int) *paging.Accumulator[model.Comment] {
	return s.comments.Feed(userID, feedName("post", postID), func(ctx context.Context, req paging.Request) (paging.Page[model.Comment], error) {
		return s.api.ListComments(ctx, postID, req)
	})
}

func (s *CommunityService) ListComments(ctx context.Context, userID uint, postID int, q FeedQuery) (paging.State[model.Comment], error) {
	if postID <= 0 {
		return paging.State[model.Comment]{}, ErrInvalidInput
	}
	return s.comments.Apply(ctx, s.commentFeed(userID, postID), q)
}

// ScrollComments continues the comment feed when the reader is close to the
// bottom of the list.
func (s *CommunityService) ScrollComments(ctx context.Context, userID uint, postID, distancePx int) (paging.State[model.Comment], bool, error) {
	if postID <= 0 {
		return paging.State[model.Comment]{}, false, ErrInvalidInput
	}
	acc := s.commentFeed(userID, postID)
	if err := acc.Ensure(ctx); err != nil {
		return acc.State(), false, err
	}
	triggered, err := acc.OnScroll(ctx, distancePx)
	return acc.State(), triggered, err
}

func (s *CommunityService) CreatePost(ctx context.Context, userID uint, groupID int, input model.PostInput) (*model.GroupPost, error) {
	input, err := cleanPost(input)
	if err != nil || groupID <= 0 {
		return nil, ErrInvalidInput
	}
	post, err := s.api.CreatePost(ctx, groupID, input)
	if err != nil {
		s.alerts.Raise(ctx, userID, fmt.Errorf("create post: %w", err))
		return nil, err
	}
	if acc, ok := s.posts.Lookup(userID, feedName("group", groupID)); ok {
		acc.Append(*post)
	}
	return post, nil
}

func (s *CommunityService) UpdatePost(ctx context.Context, userID uint, postID int, input model.PostInput) (*model.GroupPost, error) {
	input, err := cleanPost(input)
	if err != nil || postID <= 0 {
		return nil, ErrInvalidInput
	}
	post, err := s.api.UpdatePost(ctx, postID, input)
	if err != nil {
		s.alerts.Raise(ctx, userID, fmt.Errorf("update post: %w", err))
		return nil, err
	}
	s.posts.Each(userID, "group:", func(acc *paging.Accumulator[model.GroupPost]) {
		acc.UpdateFunc(func(p model.GroupPost) (model.GroupPost, bool) {
			if p.ID != postID {
				return p, false
			}
			p.Title, p.Content, p.UpdatedAt = post.Title, post.Content, post.UpdatedAt
			return p, true
		})
	})
	return post, nil
}

func (s *CommunityService) DeletePost(ctx context.Context, userID uint, postID int) error {
	if postID <= 0 {
		return ErrInvalidInput
	}
	if err := s.api.DeletePost(ctx, postID); err != nil {
		s.alerts.Raise(ctx, userID, fmt.Errorf("delete post: %w", err))
		return err
	}
	s.posts.Each(userID, "group:", func(acc *paging.Accumulator[model.GroupPost]) {
		acc.RemoveFunc(func(p model.GroupPost) bool { return p.ID == postID })
	})
	s.reactions.For(userID).Set(postID, "")
	return nil
}

// CreateComment shows the comment right away and replaces it with the
// confirmed one, or takes it back when the remote rejects it.
func (s *CommunityService) CreateComment(ctx context.Context, userID uint, postID int, input model.CommentInput) (*model.Comment, error) {
	input.Content = strings.TrimSpace(input.Content)
	if input.Content == "" || postID <= 0 {
		return nil, ErrInvalidInput
	}

	acc, tracked := s.comments.Lookup(userID, feedName("post", postID))
	pendingID := int(s.pendingID.Add(-1))
	if tracked {
		now := time.Now()
		acc.Append(model.Comment{
			ID:        pendingID,
			PostID:    postID,
			UserID:    int(userID),
			Content:   input.Content,
			Status:    "pending",
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	comment, err := s.api.CreateComment(ctx, postID, input)
	if err != nil {
		if tracked {
			acc.RemoveFunc(func(c model.Comment) bool { return c.ID == pendingID })
		}
		s.alerts.Raise(ctx, userID, fmt.Errorf("create comment: %w", err))
		return nil, err
	}
	if tracked {
		acc.UpdateFunc(func(c model.Comment) (model.Comment, bool) {
			return *comment, c.ID == pendingID
		})
	}
	return comment, nil
}

func (s *CommunityService) DeleteComment(ctx context.Context, userID uint, commentID int) error {
	if commentID <= 0 {
		return ErrInvalidInput
	}
	if err := s.api.DeleteComment(ctx, commentID); err != nil {
		s.alerts.Raise(ctx, userID, fmt.Errorf("delete comment: %w", err))
		return err
	}
	s.comments.Each(userID, "post:", func(acc *paging.Accumulator[model.Comment]) {
		acc.RemoveFunc(func(c model.Comment) bool { return c.ID == commentID })
	})
	return nil
}

// React toggles: the same type removes the reaction, another type replaces
// it and no prior reaction creates one. A rejected call leaves the book as
// it was.
func (s *CommunityService) React(ctx context.Context, userID uint, postID int, reactionType string) (*ReactionResult, error) {
	reactionType = strings.TrimSpace(reactionType)
	if postID <= 0 || reactionType == "" {
		return nil, ErrInvalidInput
	}
	book := s.reactions.For(userID)
	current := book.Get(postID)

	var (
		err    error
		action ReactionAction
		next   string
	)
	switch current {
	case reactionType:
		action = ReactionRemoved
		err = s.api.DeleteReaction(ctx, postID)
	case "":
		action, next = ReactionCreated, reactionType
		err = s.api.CreateReaction(ctx, postID, reactionType)
	default:
		action, next = ReactionReplaced, reactionType
		err = s.api.UpdateReaction(ctx, postID, reactionType)
	}
	if err != nil {
		s.alerts.Raise(ctx, userID, fmt.Errorf("react to post: %w", err))
		return nil, err
	}

	book.Set(postID, next)
	s.posts.Each(userID, "group:", func(acc *paging.Accumulator[model.GroupPost]) {
		acc.UpdateFunc(func(p model.GroupPost) (model.GroupPost, bool) {
			if p.ID != postID {
				return p, false
			}
			return applyReaction(p, current, next), true
		})
	})
	return &ReactionResult{PostID: postID, ReactionType: next, Action: action}, nil
}

func (s *CommunityService) Report(ctx context.Context, userID uint, report model.Report) error {
	report.Reason = strings.TrimSpace(report.Reason)
	if report.TargetID <= 0 || report.Reason == "" {
		return ErrInvalidInput
	}
	if report.TargetType != "post" && report.TargetType != "comment" {
		return ErrInvalidInput
	}
	if err := s.api.CreateReport(ctx, report); err != nil {
		s.alerts.Raise(ctx, userID, fmt.Errorf("report %s: %w", report.TargetType, err))
		return err
	}
	s.alerts.Info(ctx, userID, model.KindCommunity, "Thanks, your report was submitted.")
	return nil
}

// applyReaction moves one count from the previous reaction type to the next.
func applyReaction(p model.GroupPost, prev, next string) model.GroupPost {
	counts := make(map[string]int, len(p.Reactions)+1)
	for k, v := range p.Reactions {
		counts[k] = v
	}
	if prev != "" && counts[prev] > 0 {
		counts[prev]--
		if counts[prev] == 0 {
			delete(counts, prev)
		}
	}
	if next != "" {
		counts[next]++
	}
	p.Reactions = counts
	p.MyReaction = next
	return p
}

func cleanPost(input model.PostInput) (model.PostInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if input.Title == "" || input.Content == "" {
		return input, ErrInvalidInput
	}
	return input, nil
}
