package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Guyuepp/go-comment-engine/domain"
	"github.com/Guyuepp/go-comment-engine/internal/repository"
	"github.com/Guyuepp/go-comment-engine/internal/rest/middleware"
	"github.com/Guyuepp/go-comment-engine/internal/rest/request"
	"github.com/Guyuepp/go-comment-engine/internal/rest/response"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
	Info    any    `json:"info,omitempty"`
}

// CommentHandler maps the HTTP routes onto the seven engine operations.
type CommentHandler struct {
	Service domain.CommentUsecase
}

func NewCommentHandler(svc domain.CommentUsecase) *CommentHandler {
	return &CommentHandler{
		Service: svc,
	}
}

// Register attaches the comment routes to the router.
func (h *CommentHandler) Register(r gin.IRouter) {
	r.GET("/comments/:page", h.List)
	r.GET("/comments/:page/auth", h.ResolveAuth)
	r.POST("/comments/:page", h.Post)
	r.PATCH("/comments/:page/:id", h.Update)
	r.DELETE("/comments/:page/:id", h.Delete)
	r.POST("/comments/:page/:id/rate", h.SetRate)
	r.DELETE("/comments/:page/:id/rate", h.DeleteRate)
}

// List will fetch a window of comments; anonymous access is allowed.
func (h *CommentHandler) List(c *gin.Context) {
	in := domain.ListInput{
		Page:   c.Param("page"),
		Thread: c.Query("thread"),
		Sort:   c.Query("sort"),
		Before: c.Query("before"),
		After:  c.Query("after"),
	}
	if limitS := c.Query("limit"); limitS != "" {
		limit, err := strconv.Atoi(limitS)
		if err != nil {
			c.JSON(http.StatusBadRequest, ResponseError{Message: "limit: is not a number"})
			return
		}
		in.Limit = limit
	}

	ctx := c.Request.Context()
	comments, err := h.Service.List(ctx, middleware.AuthFromContext(c), in)
	if err != nil {
		writeError(c, err)
		return
	}

	res := make([]response.Comment, len(comments))
	for i := range comments {
		res[i] = response.NewCommentFromDomain(&comments[i])
	}
	if len(comments) > 0 {
		c.Header(`X-cursor`, repository.EncodeCursor(comments[len(comments)-1].CreatedAt))
	}
	c.JSON(http.StatusOK, res)
}

// ResolveAuth returns the caller's session and moderation role.
func (h *CommentHandler) ResolveAuth(c *gin.Context) {
	session, err := h.Service.ResolveAuth(c.Request.Context(), middleware.AuthFromContext(c), c.Param("page"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewSessionFromDomain(session))
}

// Post stores a new comment by the authenticated caller.
func (h *CommentHandler) Post(c *gin.Context) {
	var req request.PostComment
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	in := domain.PostInput{
		Page:    c.Param("page"),
		Thread:  req.Thread,
		Content: req.Content,
	}
	comment, err := h.Service.Post(c.Request.Context(), middleware.AuthFromContext(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewCommentFromDomain(comment))
}

// Update replaces a comment's content wholesale.
func (h *CommentHandler) Update(c *gin.Context) {
	var req request.UpdateComment
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	in := domain.UpdateInput{
		Page:    c.Param("page"),
		ID:      c.Param("id"),
		Content: req.Content,
	}
	if err := h.Service.Update(c.Request.Context(), middleware.AuthFromContext(c), in); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment updated"})
}

// Delete removes a comment and its direct replies.
func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), middleware.AuthFromContext(c), c.Param("page"), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}

// SetRate upserts the caller's like/dislike on a comment.
func (h *CommentHandler) SetRate(c *gin.Context) {
	var req request.Rate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: "like: a boolean is required"})
		return
	}

	in := domain.RateInput{
		Page: c.Param("page"),
		ID:   c.Param("id"),
		Like: req.Like,
	}
	if err := h.Service.SetRate(c.Request.Context(), middleware.AuthFromContext(c), in); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rating saved"})
}

// DeleteRate removes the caller's rating.
func (h *CommentHandler) DeleteRate(c *gin.Context) {
	if err := h.Service.DeleteRate(c.Request.Context(), middleware.AuthFromContext(c), c.Param("page"), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rating removed"})
}

// writeError renders the engine's uniform error result natively: validation
// failures as 400 with the joined field reasons, authorization as 401,
// explicit-status domain errors verbatim and anything unexpected as 500.
func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, ResponseError{Message: verr.Error(), Info: verr.Violations})
		return
	}
	var serr *domain.StatusError
	if errors.As(err, &serr) {
		c.JSON(serr.Status, ResponseError{Message: serr.Message, Info: serr.Info})
		return
	}
	c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
}

// getStatusCode will get the code of the error from domain.CommentUsecase
func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, domain.ErrBadParamInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInternalServerError):
		return http.StatusInternalServerError
	default:
		logrus.Error(err)
		return http.StatusInternalServerError
	}
}
