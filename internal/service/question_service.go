package service

import (
	"context"
	"errors"

	"github.com/jinzhu/copier"
	"github.com/lshigami/examhall/internal/apperror"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/rs/zerolog/log"
)

// QuestionBankService manages the reusable questions teachers pick tests from.
type QuestionBankService interface {
	CreateQuestion(ctx context.Context, caller model.Caller, req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error)
	GetQuestion(ctx context.Context, caller model.Caller, id uint) (*dto.QuestionResponseDTO, error)
	ListQuestions(ctx context.Context, caller model.Caller, subject, classID string) ([]dto.QuestionResponseDTO, error)
	UpdateQuestion(ctx context.Context, caller model.Caller, id uint, req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error)
	DeleteQuestion(ctx context.Context, caller model.Caller, id uint) error
}

type questionBankService struct {
	questionRepo repository.QuestionRepository
	testRepo     repository.TestRepository
}

func NewQuestionBankService(questionRepo repository.QuestionRepository, testRepo repository.TestRepository) QuestionBankService {
	return &questionBankService{questionRepo: questionRepo, testRepo: testRepo}
}

func (s *questionBankService) CreateQuestion(ctx context.Context, caller model.Caller, req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error) {
	if err := authorizeScope(caller, req.Subject, req.ClassID); err != nil {
		return nil, err
	}
	question := model.Question{
		Subject:       req.Subject,
		ClassID:       req.ClassID,
		Text:          req.Text,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Mark:          req.Mark,
		OwnerID:       caller.ID,
	}
	if errs := ValidateQuestionShape(question); len(errs) > 0 {
		return nil, apperror.Validation("invalid question", errs...)
	}
	if err := s.questionRepo.Create(ctx, &question); err != nil {
		log.Error().Err(err).Str("ownerID", caller.ID).Msg("CreateQuestion: failed to store question")
		return nil, apperror.Internal("failed to create question", err)
	}
	return toQuestionDTO(question), nil
}

func (s *questionBankService) GetQuestion(ctx context.Context, caller model.Caller, id uint) (*dto.QuestionResponseDTO, error) {
	question, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeScope(caller, question.Subject, question.ClassID); err != nil {
		return nil, err
	}
	return toQuestionDTO(*question), nil
}

// ListQuestions lists one subject/class bank. Teachers must name a pair they
// are assigned to; admins may list everything.
func (s *questionBankService) ListQuestions(ctx context.Context, caller model.Caller, subject, classID string) ([]dto.QuestionResponseDTO, error) {
	if caller.Role != model.RoleAdmin && (subject == "" || classID == "") {
		return nil, apperror.Validation("subject and class are required",
			apperror.FieldError{Field: "subject", Error: "is required"},
			apperror.FieldError{Field: "class", Error: "is required"})
	}
	if subject != "" && classID != "" {
		if err := authorizeScope(caller, subject, classID); err != nil {
			return nil, err
		}
	} else if err := requireRole(caller, model.RoleAdmin); err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.List(ctx, repository.QuestionFilter{Subject: subject, ClassID: classID})
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Str("classID", classID).Msg("ListQuestions: repository error")
		return nil, apperror.Internal("failed to list questions", err)
	}
	resp := make([]dto.QuestionResponseDTO, 0, len(questions))
	for _, q := range questions {
		resp = append(resp, *toQuestionDTO(q))
	}
	return resp, nil
}

func (s *questionBankService) UpdateQuestion(ctx context.Context, caller model.Caller, id uint, req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error) {
	question, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeScope(caller, req.Subject, req.ClassID); err != nil {
		return nil, err
	}
	if err := s.ensureUnreferenced(ctx, question); err != nil {
		return nil, err
	}

	question.Subject = req.Subject
	question.ClassID = req.ClassID
	question.Text = req.Text
	question.Options = req.Options
	question.CorrectAnswer = req.CorrectAnswer
	question.Mark = req.Mark
	if errs := ValidateQuestionShape(*question); len(errs) > 0 {
		return nil, apperror.Validation("invalid question", errs...)
	}
	if err := s.questionRepo.Update(ctx, question); err != nil {
		log.Error().Err(err).Uint("questionID", id).Msg("UpdateQuestion: failed to save question")
		return nil, apperror.Internal("failed to update question", err)
	}
	return toQuestionDTO(*question), nil
}

func (s *questionBankService) DeleteQuestion(ctx context.Context, caller model.Caller, id uint) error {
	question, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.ensureUnreferenced(ctx, question); err != nil {
		return err
	}
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		log.Error().Err(err).Uint("questionID", id).Msg("DeleteQuestion: failed to delete question")
		return apperror.Internal("failed to delete question", err)
	}
	return nil
}

func (s *questionBankService) load(ctx context.Context, id uint) (*model.Question, error) {
	question, err := s.questionRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("question not found")
	}
	if err != nil {
		log.Error().Err(err).Uint("questionID", id).Msg("failed to load question")
		return nil, apperror.Internal("failed to load question", err)
	}
	return question, nil
}

// loadOwned loads a question the caller may modify: its owner (still assigned
// to its scope) or an admin.
func (s *questionBankService) loadOwned(ctx context.Context, caller model.Caller, id uint) (*model.Question, error) {
	question, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeScope(caller, question.Subject, question.ClassID); err != nil {
		return nil, err
	}
	if caller.Role != model.RoleAdmin && question.OwnerID != caller.ID {
		return nil, apperror.Forbidden("only the question's owner can change it")
	}
	return question, nil
}

// ensureUnreferenced keeps questions immutable once a non-draft test uses them.
func (s *questionBankService) ensureUnreferenced(ctx context.Context, question *model.Question) error {
	tests, err := s.testRepo.FindNonDraftReferencing(ctx, question.ID, question.Subject, question.ClassID)
	if err != nil {
		log.Error().Err(err).Uint("questionID", question.ID).Msg("failed to check question references")
		return apperror.Internal("failed to check question references", err)
	}
	if len(tests) > 0 {
		return apperror.Conflict("question is used by a scheduled test")
	}
	return nil
}

func toQuestionDTO(q model.Question) *dto.QuestionResponseDTO {
	var resp dto.QuestionResponseDTO
	copier.Copy(&resp, &q)
	resp.Options = append([]string(nil), q.Options...)
	return &resp
}
