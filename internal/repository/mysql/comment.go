package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Guyuepp/go-comment-engine/domain"
	"github.com/Guyuepp/go-comment-engine/internal/repository/mysql/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type commentStorage struct {
	DB *gorm.DB
}

var _ domain.CommentStorage = (*commentStorage)(nil)

// NewCommentStorage creates the MySQL implementation of the storage contract.
func NewCommentStorage(db *gorm.DB) *commentStorage {
	return &commentStorage{
		DB: db,
	}
}

// Migrate creates the comment, rating and role tables.
func (r *commentStorage) Migrate() error {
	return r.DB.AutoMigrate(&model.Comment{}, &model.Rating{}, &model.Role{})
}

func (r *commentStorage) GetComments(ctx context.Context, opts domain.ListOptions) ([]domain.Comment, error) {
	q := r.DB.WithContext(ctx).Model(&model.Comment{}).Where("page = ?", opts.Page)
	if opts.Thread != nil {
		q = q.Where("thread_id = ?", *opts.Thread)
	} else {
		q = q.Where("thread_id IS NULL")
	}
	if opts.Before != nil {
		q = q.Where("created_at < ?", *opts.Before)
	}
	if opts.After != nil {
		q = q.Where("created_at > ?", *opts.After)
	}
	order := "created_at DESC, id ASC"
	if opts.Sort == domain.SortOldest {
		order = "created_at ASC, id ASC"
	}

	var rows []model.Comment
	if err := q.Order(order).Limit(opts.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []domain.Comment{}, nil
	}

	res := make([]domain.Comment, len(rows))
	ids := make([]string, len(rows))
	index := make(map[string]*domain.Comment, len(rows))
	for i := range rows {
		res[i] = rows[i].ToDomain()
		ids[i] = res[i].ID
		index[res[i].ID] = &res[i]
	}

	if err := r.fillAggregates(ctx, ids, index, opts.Auth); err != nil {
		return nil, err
	}
	return res, nil
}

// fillAggregates attaches like/dislike/reply counts and the caller's own
// rating. Grouped counts keyed by surviving comment ids, so orphaned ratings
// never leak into the numbers.
func (r *commentStorage) fillAggregates(ctx context.Context, ids []string, index map[string]*domain.Comment, auth *domain.AuthInfo) error {
	type rateCount struct {
		CommentID string
		Liked     bool
		N         int64
	}
	var rates []rateCount
	err := r.DB.WithContext(ctx).Model(&model.Rating{}).
		Select("comment_id, liked, count(*) as n").
		Where("comment_id IN ?", ids).
		Group("comment_id, liked").
		Find(&rates).Error
	if err != nil {
		return err
	}
	for _, rc := range rates {
		c := index[rc.CommentID]
		if c == nil {
			continue
		}
		if rc.Liked {
			c.Likes = rc.N
		} else {
			c.Dislikes = rc.N
		}
	}

	type replyCount struct {
		ThreadID string
		N        int64
	}
	var replies []replyCount
	err = r.DB.WithContext(ctx).Model(&model.Comment{}).
		Select("thread_id, count(*) as n").
		Where("thread_id IN ?", ids).
		Group("thread_id").
		Find(&replies).Error
	if err != nil {
		return err
	}
	for _, rc := range replies {
		if c := index[rc.ThreadID]; c != nil {
			c.Replies = rc.N
		}
	}

	if auth == nil {
		return nil
	}
	var own []model.Rating
	err = r.DB.WithContext(ctx).
		Where("comment_id IN ? AND user_id = ?", ids, auth.ID).
		Find(&own).Error
	if err != nil {
		return err
	}
	for i := range own {
		if c := index[own[i].CommentID]; c != nil {
			liked := own[i].Liked
			c.Liked = &liked
		}
	}
	return nil
}

func (r *commentStorage) PostComment(ctx context.Context, auth domain.AuthInfo, page string, thread *string, content *domain.ContentNode) (*domain.Comment, error) {
	row, err := model.NewCommentFromDomain(&domain.Comment{
		ID:        uuid.NewString(),
		Page:      page,
		ThreadID:  thread,
		Author:    auth.ID,
		Content:   content,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if thread != nil {
			var parent model.Comment
			err := tx.Select("id, thread_id").
				First(&parent, "id = ? AND page = ?", *thread, page).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			if err != nil {
				return err
			}
			if parent.ThreadID != nil {
				return &domain.StatusError{Status: http.StatusBadRequest, Message: "thread must reference a top-level comment"}
			}
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, err
	}

	res := row.ToDomain()
	return &res, nil
}

func (r *commentStorage) UpdateComment(ctx context.Context, id string, auth domain.AuthInfo, page string, content *domain.ContentNode) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return err
	}
	// ownership lives in the predicate; zero rows affected is a no-op by contract
	return r.DB.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ? AND author = ? AND page = ?", id, auth.ID, page).
		Update("content", string(raw)).Error
}

func (r *commentStorage) DeleteComment(ctx context.Context, id string, auth domain.AuthInfo, page string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := tx.Model(&model.Comment{}).
			Where("page = ? AND (id = ? OR thread_id = ?)", page, id, id).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&model.Rating{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&model.Comment{}).Error
	})
}

func (r *commentStorage) SetRate(ctx context.Context, id string, auth domain.AuthInfo, page string, like bool) error {
	row := model.NewRatingFromDomain(domain.Rating{
		CommentID: id,
		UserID:    auth.ID,
		Like:      like,
		CreatedAt: time.Now(),
	})
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target model.Comment
		err := tx.Select("id").First(&target, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		// atomic at the (comment_id, user_id) unique key
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "comment_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"liked"}),
		}).Create(&row).Error
	})
}

func (r *commentStorage) DeleteRate(ctx context.Context, id string, auth domain.AuthInfo, page string) error {
	return r.DB.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", id, auth.ID).
		Delete(&model.Rating{}).Error
}

func (r *commentStorage) GetCommentAuthor(ctx context.Context, id string) (string, error) {
	var row model.Comment
	err := r.DB.WithContext(ctx).Select("author").First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return row.Author, nil
}

func (r *commentStorage) GetRole(ctx context.Context, auth domain.AuthInfo, page string) (*domain.Role, error) {
	var row model.Role
	err := r.DB.WithContext(ctx).First(&row, "user_id = ? AND page = ?", auth.ID, page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	role := row.ToDomain()
	return &role, nil
}
