package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/jmcardona/atalaya/backend/internal/models"
)

var ErrEmptyComment = errors.New("comment body required")

const maxCommentLen = 2000

// CommentService persists visitor comments.
type CommentService struct {
	db *gorm.DB
}

// NewCommentService returns a CommentService using the provided DB.
func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// List returns approved comments, newest first.
func (s *CommentService) List(limit int) ([]models.Comment, error) {
	var res []models.Comment
	q := s.db.Where("approved = ?", true).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&res).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return res, nil
}

// Create stores a new comment for the given user.
func (s *CommentService) Create(user *models.User, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyComment
	}
	if len(body) > maxCommentLen {
		body = body[:maxCommentLen]
	}

	comment := models.Comment{
		UserID:   user.ID,
		Author:   user.Name,
		Body:     body,
		Approved: true,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &comment, nil
}
