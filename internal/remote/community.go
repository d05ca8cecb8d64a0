package remote

import (
	"context"
	"fmt"
	"net/http"

	"healthhub/internal/model"
)

func (c *Client) CreatePost(ctx context.Context, groupID int, input model.PostInput) (*model.GroupPost, error) {
	res, err := do("create post", c.request(ctx).SetBody(input), http.MethodPost,
		fmt.Sprintf("/community/groups/%d/posts", groupID), http.StatusCreated)
	if err != nil {
		return nil, err
	}
	var post model.GroupPost
	if err := Decode(res.Body(), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) UpdatePost(ctx context.Context, postID int, input model.PostInput) (*model.GroupPost, error) {
	res, err := do("update post", c.request(ctx).SetBody(input), http.MethodPut,
		fmt.Sprintf("/community/posts/%d", postID), http.StatusOK)
	if err != nil {
		return nil, err
	}
	var post model.GroupPost
	if err := Decode(res.Body(), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, postID int) error {
	_, err := do("delete post", c.request(ctx), http.MethodDelete,
		fmt.Sprintf("/community/posts/%d", postID), http.StatusNoContent)
	return err
}

func (c *Client) CreateComment(ctx context.Context, postID int, input model.CommentInput) (*model.Comment, error) {
	res, err := do("create comment", c.request(ctx).SetBody(input), http.MethodPost,
		fmt.Sprintf("/community/posts/%d/comments", postID), http.StatusCreated)
	if err != nil {
		return nil, err
	}
	var comment model.Comment
	if err := Decode(res.Body(), &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, commentID int) error {
	_, err := do("delete comment", c.request(ctx), http.MethodDelete,
		fmt.Sprintf("/community/comments/%d", commentID), http.StatusNoContent)
	return err
}

func (c *Client) CreateReaction(ctx context.Context, postID int, reactionType string) error {
	_, err := do("create reaction", c.request(ctx).SetBody(model.ReactionInput{ReactionType: reactionType}),
		http.MethodPost, reactionPath(postID), http.StatusCreated)
	return err
}

func (c *Client) UpdateReaction(ctx context.Context, postID int, reactionType string) error {
	_, err := do("update reaction", c.request(ctx).SetBody(model.ReactionInput{ReactionType: reactionType}),
		http.MethodPut, reactionPath(postID), http.StatusOK)
	return err
}

func (c *Client) DeleteReaction(ctx context.Context, postID int) error {
	_, err := do("delete reaction", c.request(ctx), http.MethodDelete, reactionPath(postID), http.StatusNoContent)
	return err
}

func (c *Client) CreateReport(ctx context.Context, report model.Report) error {
	_, err := do("create report", c.request(ctx).SetBody(report), http.MethodPost, "/community/reports",
		http.StatusCreated)
	return err
}

func reactionPath(postID int) string {
	return fmt.Sprintf("/community/posts/%d/reactions", postID)
}
