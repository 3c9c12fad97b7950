package services

import (
	"reviewhub/internal/apperrors"
	"reviewhub/internal/models"
	"reviewhub/internal/repositories"
)

// FeedbackService handles business logic for reviews and comments. Every
// operation verifies the parent chain (title, then review) so a request
// against a missing parent fails with not-found before anything else.
type FeedbackService struct {
	titleRepo   repositories.TitleRepository
	reviewRepo  repositories.ReviewRepository
	commentRepo repositories.CommentRepository
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(titleRepo repositories.TitleRepository, reviewRepo repositories.ReviewRepository, commentRepo repositories.CommentRepository) *FeedbackService {
	return &FeedbackService{
		titleRepo:   titleRepo,
		reviewRepo:  reviewRepo,
		commentRepo: commentRepo,
	}
}

// CreateReview adds the author's review of a title. The ExistsForAuthor
// pre-check only produces a friendlier error in the common case; the
// unique index behind reviewRepo.Create is what actually guarantees at
// most one review per (author, title) under concurrency.
func (s *FeedbackService) CreateReview(titleID uint, author *models.User, text string, score int) (*models.Review, error) {
	if score < 1 || score > 10 {
		return nil, apperrors.ErrInvalidScore
	}
	if _, err := s.titleRepo.GetByID(titleID); err != nil {
		return nil, err
	}
	exists, err := s.reviewRepo.ExistsForAuthor(titleID, author.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrDuplicateReview
	}

	review := &models.Review{
		Text:     text,
		AuthorID: author.ID,
		TitleID:  titleID,
		Score:    score,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}
	review.AuthorUsername = author.Username
	return review, nil
}

// ListReviews retrieves a page of a title's reviews, newest first.
func (s *FeedbackService) ListReviews(titleID uint, limit, offset int) ([]models.Review, error) {
	if _, err := s.titleRepo.GetByID(titleID); err != nil {
		return nil, err
	}
	reviews, err := s.reviewRepo.ListByTitle(titleID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		stampReviewAuthor(&reviews[i])
	}
	return reviews, nil
}

// GetReview retrieves one review of a title.
func (s *FeedbackService) GetReview(titleID, reviewID uint) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(titleID, reviewID)
	if err != nil {
		return nil, err
	}
	stampReviewAuthor(review)
	return review, nil
}

// UpdateReview applies a partial update to a review's text and score.
func (s *FeedbackService) UpdateReview(titleID, reviewID uint, text *string, score *int) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if text != nil {
		review.Text = *text
	}
	if score != nil {
		if *score < 1 || *score > 10 {
			return nil, apperrors.ErrInvalidScore
		}
		review.Score = *score
	}
	if err := s.reviewRepo.Update(review); err != nil {
		return nil, err
	}
	stampReviewAuthor(review)
	return review, nil
}

// DeleteReview removes a review and its comments.
func (s *FeedbackService) DeleteReview(titleID, reviewID uint) error {
	return s.reviewRepo.Delete(titleID, reviewID)
}

// CreateComment attaches a comment to a review of a title.
func (s *FeedbackService) CreateComment(titleID, reviewID uint, author *models.User, text string) (*models.Comment, error) {
	if _, err := s.reviewRepo.GetByID(titleID, reviewID); err != nil {
		return nil, err
	}
	comment := &models.Comment{
		Text:     text,
		AuthorID: author.ID,
		ReviewID: reviewID,
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, err
	}
	comment.AuthorUsername = author.Username
	return comment, nil
}

// ListComments retrieves a page of a review's comments, newest first.
func (s *FeedbackService) ListComments(titleID, reviewID uint, limit, offset int) ([]models.Comment, error) {
	if _, err := s.reviewRepo.GetByID(titleID, reviewID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByReview(reviewID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		stampCommentAuthor(&comments[i])
	}
	return comments, nil
}

// GetComment retrieves one comment of a review of a title.
func (s *FeedbackService) GetComment(titleID, reviewID, commentID uint) (*models.Comment, error) {
	if _, err := s.reviewRepo.GetByID(titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(reviewID, commentID)
	if err != nil {
		return nil, err
	}
	stampCommentAuthor(comment)
	return comment, nil
}

// UpdateComment replaces the text of a comment.
func (s *FeedbackService) UpdateComment(titleID, reviewID, commentID uint, text string) (*models.Comment, error) {
	comment, err := s.GetComment(titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	comment.Text = text
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a single comment.
func (s *FeedbackService) DeleteComment(titleID, reviewID, commentID uint) error {
	if _, err := s.reviewRepo.GetByID(titleID, reviewID); err != nil {
		return err
	}
	return s.commentRepo.Delete(reviewID, commentID)
}

func stampReviewAuthor(review *models.Review) {
	if review.Author != nil {
		review.AuthorUsername = review.Author.Username
	}
}

func stampCommentAuthor(comment *models.Comment) {
	if comment.Author != nil {
		comment.AuthorUsername = comment.Author.Username
	}
}
