package contact

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"buildcheck/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9()\-\s]{7,20}$`)

// Submission is a contact form as posted by the public site.
type Submission struct {
	Name    string `validate:"min=2,max=80"`
	Phone   string `validate:"phone"`
	Message string `validate:"min=5,max=2000"`
}

var fieldMessages = map[string]string{
	"Name":    "Name must be 2-80 characters",
	"Phone":   "Phone format is invalid",
	"Message": "Message must be 5-2000 characters",
}

type ContactUsecase struct {
	repo     contactRepository
	validate *validator.Validate
	logger   *zlog.Zerolog
	now      func() time.Time
}

func NewContactUsecase(repo contactRepository, logger *zlog.Zerolog) *ContactUsecase {
	v := validator.New()
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return &ContactUsecase{
		repo:     repo,
		validate: v,
		logger:   logger,
		now:      time.Now,
	}
}

func (u *ContactUsecase) Submit(ctx context.Context, in Submission) (domain.ContactEntry, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Message = strings.TrimSpace(in.Message)

	if err := u.validate.Struct(in); err != nil {
		return domain.ContactEntry{}, toValidationError(err)
	}

	entry := domain.ContactEntry{
		Name:         in.Name,
		Phone:        in.Phone,
		Message:      in.Message,
		RegisteredAt: u.now().UTC().Format(time.RFC3339),
	}

	if err := u.repo.Add(ctx, entry); err != nil {
		u.logger.Error().Err(err).Msg("Failed to persist contact submission")
		return domain.ContactEntry{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	u.logger.Info().Str("registered_at", entry.RegisteredAt).Msg("Contact submission stored")
	return entry, nil
}

func (u *ContactUsecase) List(ctx context.Context) ([]domain.ContactEntry, error) {
	items, err := u.repo.List(ctx)
	if err != nil {
		u.logger.Error().Err(err).Msg("Failed to list contact submissions")
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return items, nil
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := fieldMessages[verrs[0].Field()]; ok {
			return &ValidationError{Message: msg}
		}
	}
	return &ValidationError{Message: "Invalid contact submission"}
}
