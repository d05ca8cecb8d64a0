package handler

import (
	"github.com/gin-gonic/gin"

	"healthhub/internal/app"
	"healthhub/internal/model"
	"healthhub/internal/transport/http/response"
)

type CommunityHandler struct {
	communityService *app.CommunityService
}

type ScrollRequest struct {
	DistanceToBottom *int `json:"distance_to_bottom" binding:"required,gte=0"`
}

func NewCommunityHandler(communityService *app.CommunityService) *CommunityHandler {
	return &CommunityHandler{communityService: communityService}
}

func (h *CommunityHandler) ListGroups(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	state, err := h.communityService.ListGroups(c.Request.Context(), userID, feedQuery(c))
	if err != nil {
		writeErrorWithData(c, err, "list groups failed", state)
		return
	}
	response.OK(c, state)
}

func (h *CommunityHandler) ListGroupPosts(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	groupID, ok := intParam(c, "id")
	if !ok {
		return
	}

	state, err := h.communityService.ListGroupPosts(c.Request.Context(), userID, groupID, feedQuery(c))
	if err != nil {
		writeErrorWithData(c, err, "list posts failed", state)
		return
	}
	response.OK(c, state)
}

func (h *CommunityHandler) CreatePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	groupID, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req model.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	post, err := h.communityService.CreatePost(c.Request.Context(), userID, groupID, req)
	if err != nil {
		writeError(c, err, "create post failed")
		return
	}
	response.OK(c, post)
}

func (h *CommunityHandler) UpdatePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postID, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req model.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	post, err := h.communityService.UpdatePost(c.Request.Context(), userID, postID, req)
	if err != nil {
		writeError(c, err, "update post failed")
		return
	}
	response.OK(c, post)
}

func (h *CommunityHandler) DeletePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postID, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := h.communityService.DeletePost(c.Request.Context(), userID, postID); err != nil {
		writeError(c, err, "delete post failed")
		return
	}
	response.OK(c, gin.H{"deleted_post_id": postID})
}

func (h *CommunityHandler) ListComments(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postID, ok := intParam(c, "id")
	if !ok {
		return
	}

	state, err := h.communityService.ListComments(c.Request.Context(), userID, postID, feedQuery(c))
	if err != nil {
		writeErrorWithData(c, err, "list comments failed", state)
		return
	}
	response.OK(c, state)
}

func (h *CommunityHandler) ScrollComments(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postID, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req ScrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	state, loaded, err := h.communityService.ScrollComments(c.Request.Context(), userID, postID, *req.DistanceToBottom)
	if err != nil {
		writeErrorWithData(c, err, "load more comments failed", state)
		return
	}
	response.OK(c, gin.H{"loaded_more": loaded, "feed": state})
}

func (h *CommunityHandler) CreateComment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postID, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req model.CommentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	comment, err := h.communityService.CreateComment(c.Request.Context(), userID, postID, req)
	if err != nil {
		writeError(c, err, "create comment failed")
		return
	}
	response.OK(c, comment)
}

func (h *CommunityHandler) DeleteComment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	commentID, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := h.communityService.DeleteComment(c.Request.Context(), userID, commentID); err != nil {
		writeError(c, err, "delete comment failed")
		return
	}
	response.OK(c, gin.H{"deleted_comment_id": commentID})
}

func (h *CommunityHandler) React(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postID, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req model.ReactionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	result, err := h.communityService.React(c.Request.Context(), userID, postID, req.ReactionType)
	if err != nil {
		writeError(c, err, "update reaction failed")
		return
	}
	response.OK(c, result)
}

func (h *CommunityHandler) Report(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req model.Report
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if err := h.communityService.Report(c.Request.Context(), userID, req); err != nil {
		writeError(c, err, "submit report failed")
		return
	}
	response.OK(c, gin.H{"reported": true})
}
